package provider

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

// fixtureProvider serves static sample data and keeps memberships in memory.
type fixtureProvider struct {
	mu          sync.RWMutex
	now         func() time.Time
	logger      zerolog.Logger
	communities []models.Community
	memberships map[int64]map[int64]struct{}
	nextID      int64
}

// NewFixtureProvider constructs a provider over the bundled sample communities.
// Every user starts as a member of the sample sports community.
func NewFixtureProvider(now func() time.Time, logger zerolog.Logger) Provider {
	if now == nil {
		now = time.Now
	}
	communities := sampleCommunities()
	return &fixtureProvider{
		now:         now,
		logger:      logger.With().Str("component", "fixture_provider").Logger(),
		communities: communities,
		memberships: make(map[int64]map[int64]struct{}),
		nextID:      int64(len(communities)) + 1,
	}
}

// FallbackCommunity is the record shown when a community cannot be fetched.
func FallbackCommunity() models.Community {
	return sampleCommunities()[0]
}

func sampleCommunities() []models.Community {
	return []models.Community{
		{
			ID:                 1,
			Name:               "Teknoloji Meraklıları",
			Description:        "Yazılım, AI ve teknoloji trendleri hakkında konuşmak isteyen öğrenciler",
			Category:           models.CategoryTechnology,
			MemberCount:        24,
			MaxMembers:         30,
			CompatibilityScore: 0.92,
			Tags:               []string{"programming", "ai", "innovation"},
			IsActive:           true,
		},
		{
			ID:                 2,
			Name:               "Spor ve Sağlık",
			Description:        "Fitness, spor aktiviteleri ve sağlıklı yaşam üzerine paylaşımlar",
			Category:           models.CategorySports,
			MemberCount:        18,
			MaxMembers:         25,
			CompatibilityScore: 0.85,
			Tags:               []string{"fitness", "health", "sports"},
			IsActive:           true,
		},
		{
			ID:                 3,
			Name:               "Sanat ve Kültür",
			Description:        "Resim, müzik, tiyatro ve diğer sanat formlarını sevenler",
			Category:           models.CategoryArts,
			MemberCount:        15,
			MaxMembers:         20,
			CompatibilityScore: 0.78,
			Tags:               []string{"art", "music", "culture"},
			IsActive:           true,
		},
		{
			ID:                 4,
			Name:               "Doğa Kaşifleri",
			Description:        "Doğa yürüyüşü, kamp ve açık hava aktiviteleri sevenler",
			Category:           models.CategoryOutdoor,
			MemberCount:        12,
			MaxMembers:         20,
			CompatibilityScore: 0.88,
			Tags:               []string{"nature", "hiking", "camping"},
			IsActive:           true,
		},
	}
}

func sampleMembers() []models.CommunityMember {
	return []models.CommunityMember{
		{ID: 1, Name: "Ahmet Yılmaz", Role: models.RoleAdmin, University: "İstanbul Teknik Üniversitesi", Department: "Bilgisayar Mühendisliği", JoinedAt: "2024-01-15", IsOnline: true},
		{ID: 2, Name: "Ayşe Demir", Role: models.RoleMember, University: "Boğaziçi Üniversitesi", Department: "Psikoloji", JoinedAt: "2024-01-20", IsOnline: true},
		{ID: 3, Name: "Mehmet Kaya", Role: models.RoleMember, University: "Orta Doğu Teknik Üniversitesi", Department: "İşletme", JoinedAt: "2024-01-22", IsOnline: false},
		{ID: 4, Name: "Zeynep Şahin", Role: models.RoleMember, University: "Hacettepe Üniversitesi", Department: "Tıp", JoinedAt: "2024-01-25", IsOnline: true},
	}
}

func sampleSimilarUsers() []models.SimilarUser {
	return []models.SimilarUser{
		{User: models.User{ID: 2, Name: "Ayşe Demir", University: "Boğaziçi Üniversitesi", Department: "Psikoloji", Hobbies: []string{"Resim", "Yoga", "Fotoğrafçılık", "Müzik"}}, SimilarityScore: 0.91},
		{User: models.User{ID: 4, Name: "Zeynep Şahin", University: "Hacettepe Üniversitesi", Department: "Tıp", Hobbies: []string{"Koşu", "Yüzme"}}, SimilarityScore: 0.84},
		{User: models.User{ID: 3, Name: "Mehmet Kaya", University: "Orta Doğu Teknik Üniversitesi", Department: "İşletme", Hobbies: []string{"Futbol", "Veri Analizi", "Satranç"}}, SimilarityScore: 0.76},
	}
}

func (p *fixtureProvider) isMember(userID, communityID int64) bool {
	joined, ok := p.memberships[userID]
	if !ok {
		return communityID == 2
	}
	_, member := joined[communityID]
	return member
}

// membershipsFor materialises the default membership before the first mutation.
func (p *fixtureProvider) membershipsFor(userID int64) map[int64]struct{} {
	joined, ok := p.memberships[userID]
	if !ok {
		joined = map[int64]struct{}{2: {}}
		p.memberships[userID] = joined
	}
	return joined
}

func (p *fixtureProvider) snapshot(userID int64) []models.Community {
	result := make([]models.Community, 0, len(p.communities))
	for _, community := range p.communities {
		copyOf := community
		copyOf.Tags = append([]string(nil), community.Tags...)
		copyOf.IsMember = p.isMember(userID, community.ID)
		result = append(result, copyOf)
	}
	return result
}

func (p *fixtureProvider) FetchJoined(_ context.Context, auth Auth) ([]models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	joined := []models.Community{}
	for _, community := range p.snapshot(userID) {
		if community.IsMember {
			joined = append(joined, community)
		}
	}
	return joined, nil
}

func (p *fixtureProvider) FetchRecommended(_ context.Context, auth Auth) ([]models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	recommended := []models.Community{}
	for _, community := range p.snapshot(userID) {
		if !community.IsMember && community.MemberCount < community.MaxMembers {
			recommended = append(recommended, community)
		}
	}
	sort.SliceStable(recommended, func(i, j int) bool {
		return recommended[i].CompatibilityScore > recommended[j].CompatibilityScore
	})
	return recommended, nil
}

func (p *fixtureProvider) FetchAll(_ context.Context, auth Auth) ([]models.Community, error) {
	userID, _ := auth.UserID()
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot(userID), nil
}

func (p *fixtureProvider) FetchSimilar(_ context.Context, auth Auth) ([]models.SimilarUser, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	peers := []models.SimilarUser{}
	for _, peer := range sampleSimilarUsers() {
		if peer.User.ID != userID {
			peers = append(peers, peer)
		}
	}
	return peers, nil
}

func (p *fixtureProvider) FetchCommunity(_ context.Context, auth Auth, id int64) (*models.Community, error) {
	userID, _ := auth.UserID()
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, community := range p.snapshot(userID) {
		if community.ID == id {
			community.Members = sampleMembers()
			return &community, nil
		}
	}
	return nil, ErrNotFound
}

func (p *fixtureProvider) FetchMembers(_ context.Context, _ Auth, community models.Community) ([]models.CommunityMember, error) {
	if len(community.Members) > 0 {
		members := make([]models.CommunityMember, len(community.Members))
		copy(members, community.Members)
		return members, nil
	}
	return sampleMembers(), nil
}

func (p *fixtureProvider) FetchChat(_ context.Context, _ Auth, community models.Community) ([]models.ChatMessage, error) {
	now := p.now()
	message := func(id, userID int64, name, content string, ago time.Duration) models.ChatMessage {
		return models.ChatMessage{
			ID:          id,
			CommunityID: community.ID,
			UserID:      userID,
			UserName:    name,
			Content:     content,
			Timestamp:   now.Add(-ago),
			Type:        models.ChatKindMessage,
		}
	}
	return []models.ChatMessage{
		message(1, 1, "Ahmet Yılmaz", "Merhaba arkadaşlar! Bu hafta sonu için mini bir kodlama workshop'u düzenlemeyi düşünüyorum, ilgilenen var mı?", 70*time.Minute),
		message(2, 2, "Ayşe Demir", "Harika fikir! Ben katılmak istiyorum. Hangi konu üzerinde çalışmayı düşünüyorsun?", 68*time.Minute),
		message(3, 4, "Zeynep Şahin", "Ben de katılmak istiyorum. Python ile başlangıç seviyesinde bir proje yapabiliriz belki?", 65*time.Minute),
		message(4, 3, "Mehmet Kaya", "Mükemmel! Cuma akşamı uygun olan var mı?", 60*time.Minute),
	}, nil
}

func (p *fixtureProvider) FetchActivities(context.Context, Auth, models.Community) ([]models.Activity, error) {
	now := p.now()
	activity := func(id int64, kind models.ActivityKind, name, content string, ago time.Duration) models.Activity {
		return models.Activity{ID: id, Type: kind, UserName: name, Content: content, Timestamp: now.Add(-ago), Icon: kind.Icon()}
	}
	day := 24 * time.Hour
	return []models.Activity{
		activity(1, models.ActivityEventCreated, "Ahmet Yılmaz", "Kodlama Workshop'u oluşturuldu", 70*time.Minute),
		activity(2, models.ActivityMemberJoined, "Zeynep Şahin", "topluluğa katıldı", 3*day),
		activity(3, models.ActivityDiscussionStarted, "Ayşe Demir", "yeni bir konu başlattı: 'AI Etik Kuralları'", 4*day),
		activity(4, models.ActivityResourceShared, "Mehmet Kaya", "yeni bir kaynak paylaştı: 'Web Geliştirme Rehberi'", 8*day),
	}, nil
}

func (p *fixtureProvider) CreateCommunity(_ context.Context, auth Auth, req dto.CreateCommunityRequest) (*models.Community, error) {
	userID, err := auth.UserID()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	community := models.Community{
		ID:          p.nextID,
		Name:        req.Name,
		Description: req.Description,
		Category:    models.Category(req.Category),
		MemberCount: 1,
		MaxMembers:  req.MaxMembers,
		Tags:        append([]string(nil), req.Tags...),
		IsActive:    true,
		CreatedBy:   userID,
	}
	p.nextID++
	p.communities = append(p.communities, community)
	p.membershipsFor(userID)[community.ID] = struct{}{}

	p.logger.Debug().Int64("community_id", community.ID).Int64("user_id", userID).Msg("fixture community created")

	community.IsMember = true
	return &community, nil
}

func (p *fixtureProvider) Join(_ context.Context, auth Auth, communityID int64) error {
	userID, err := auth.UserID()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.indexOf(communityID)
	if index < 0 {
		return ErrNotFound
	}
	if p.isMember(userID, communityID) {
		return nil
	}
	community := &p.communities[index]
	if community.MaxMembers > 0 && community.MemberCount >= community.MaxMembers {
		return ErrCommunityFull
	}
	community.MemberCount++
	p.membershipsFor(userID)[communityID] = struct{}{}
	return nil
}

func (p *fixtureProvider) Leave(_ context.Context, auth Auth, communityID int64) error {
	userID, err := auth.UserID()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.indexOf(communityID)
	if index < 0 {
		return ErrNotFound
	}
	if !p.isMember(userID, communityID) {
		return ErrNotMember
	}
	community := &p.communities[index]
	if community.MemberCount > 0 {
		community.MemberCount--
	}
	delete(p.membershipsFor(userID), communityID)
	return nil
}

func (p *fixtureProvider) indexOf(communityID int64) int {
	for i := range p.communities {
		if p.communities[i].ID == communityID {
			return i
		}
	}
	return -1
}
