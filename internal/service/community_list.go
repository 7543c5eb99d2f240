package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/observability"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

const (
	msgCreateSuccess = "Topluluk başarıyla oluşturuldu!"
	msgCreateFailed  = "Topluluk oluşturulurken bir hata oluştu: "
	msgJoinSuccess   = "Topluluğa başarıyla katıldın!"
	msgJoinFailed    = "Topluluğa katılırken bir hata oluştu: "
)

// CommunityDetailPath is where a joined community card navigates to.
func CommunityDetailPath(id int64) string {
	return "/communities/" + strconv.FormatInt(id, 10)
}

type communityRegion struct {
	state       dto.LoadState
	communities []models.Community
	err         string
}

type similarRegion struct {
	state dto.LoadState
	users []models.SimilarUser
	err   string
}

// CommunityListController owns the community list view of one session.
// The four collections load independently; a failure marks only its own region.
type CommunityListController struct {
	provider  provider.Provider
	auth      provider.Auth
	validator *validator.Validate
	notifier  Notifier
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	closed     bool
	regions    map[dto.Region]*communityRegion
	similar    similarRegion
	query      string
	category   string
	dialogOpen bool
	joining    map[int64]struct{}
	inflight   map[dto.Region]chan struct{}
}

// NewCommunityListController constructs a list view for the session behind auth.
func NewCommunityListController(p provider.Provider, auth provider.Auth, validate *validator.Validate, notifier Notifier, logger zerolog.Logger) *CommunityListController {
	ctx, cancel := context.WithCancel(context.Background())
	if validate == nil {
		validate = validator.New()
	}

	return &CommunityListController{
		provider:  p,
		auth:      auth,
		validator: validate,
		notifier:  notifier,
		logger:    logger.With().Str("component", "community_list").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		regions: map[dto.Region]*communityRegion{
			dto.RegionJoined:      {state: dto.StateLoading},
			dto.RegionRecommended: {state: dto.StateLoading},
			dto.RegionAll:         {state: dto.StateLoading},
		},
		similar: similarRegion{state: dto.StateLoading},
		joining: make(map[int64]struct{}),
	}
}

// Load fires the four collection loads concurrently. Every task reports nil so a
// failing region never cancels its siblings.
func (c *CommunityListController) Load(ctx context.Context) {
	var group errgroup.Group
	group.Go(func() error { _ = c.LoadUserCommunities(ctx); return nil })
	group.Go(func() error { _ = c.LoadRecommended(ctx); return nil })
	group.Go(func() error { _ = c.LoadAllCommunities(ctx); return nil })
	group.Go(func() error { _ = c.LoadSimilarUsers(ctx); return nil })
	_ = group.Wait()
}

// Start fires the four collection loads on the view's own lifetime and returns at
// once. Each region settles on its own; Close cancels whatever is still running.
// Calling Start again is a no-op.
func (c *CommunityListController) Start() {
	c.mu.Lock()
	if c.closed || c.inflight != nil {
		c.mu.Unlock()
		return
	}
	regions := dto.Regions()
	c.inflight = make(map[dto.Region]chan struct{}, len(regions))
	for _, region := range regions {
		c.inflight[region] = make(chan struct{})
	}
	inflight := c.inflight
	c.mu.Unlock()

	for region, done := range inflight {
		go func(region dto.Region, done chan struct{}) {
			defer close(done)
			_ = c.LoadRegion(c.ctx, region)
		}(region, done)
	}
}

// Settle waits until every load fired by Start has finished or ctx is done and
// reports whether all of them finished. Regions still running keep their loading state.
func (c *CommunityListController) Settle(ctx context.Context) bool {
	c.mu.RLock()
	inflight := c.inflight
	c.mu.RUnlock()

	for _, done := range inflight {
		select {
		case <-done:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// AwaitRegion waits for the load Start fired for region when it is still running
// and reports whether there was one to wait for.
func (c *CommunityListController) AwaitRegion(ctx context.Context, region dto.Region) (bool, error) {
	c.mu.RLock()
	done, ok := c.inflight[region]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	select {
	case <-done:
		return false, nil
	default:
	}

	select {
	case <-done:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// LoadRegion reloads a single region by name.
func (c *CommunityListController) LoadRegion(ctx context.Context, region dto.Region) error {
	switch region {
	case dto.RegionJoined:
		return c.LoadUserCommunities(ctx)
	case dto.RegionRecommended:
		return c.LoadRecommended(ctx)
	case dto.RegionAll:
		return c.LoadAllCommunities(ctx)
	case dto.RegionSimilar:
		return c.LoadSimilarUsers(ctx)
	default:
		return fmt.Errorf("unknown region %q", region)
	}
}

func (c *CommunityListController) LoadUserCommunities(ctx context.Context) error {
	return c.loadCommunities(ctx, dto.RegionJoined, c.provider.FetchJoined)
}

func (c *CommunityListController) LoadRecommended(ctx context.Context) error {
	return c.loadCommunities(ctx, dto.RegionRecommended, c.provider.FetchRecommended)
}

func (c *CommunityListController) LoadAllCommunities(ctx context.Context) error {
	return c.loadCommunities(ctx, dto.RegionAll, c.provider.FetchAll)
}

func (c *CommunityListController) LoadSimilarUsers(ctx context.Context) error {
	ctx, done := c.bind(ctx)
	defer done()

	users, err := c.provider.FetchSimilar(ctx, c.auth)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrViewClosed
	}

	if err != nil {
		c.similar = similarRegion{state: dto.StateError, err: friendzone.MessageOf(err, "Benzer kullanıcılar yüklenemedi")}
		c.recordLoad(dto.RegionSimilar, err)
		return err
	}

	c.similar = similarRegion{state: stateFor(len(users)), users: users}
	c.recordLoad(dto.RegionSimilar, nil)
	return nil
}

type fetchFunc func(ctx context.Context, auth provider.Auth) ([]models.Community, error)

func (c *CommunityListController) loadCommunities(ctx context.Context, region dto.Region, fetch fetchFunc) error {
	ctx, done := c.bind(ctx)
	defer done()

	communities, err := fetch(ctx, c.auth)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrViewClosed
	}

	if err != nil {
		*c.regions[region] = communityRegion{state: dto.StateError, err: friendzone.MessageOf(err, "Topluluklar yüklenemedi")}
		c.recordLoad(region, err)
		return err
	}

	*c.regions[region] = communityRegion{state: stateFor(len(communities)), communities: communities}
	c.recordLoad(region, nil)
	return nil
}

func (c *CommunityListController) recordLoad(region dto.Region, err error) {
	state := "ok"
	if err != nil {
		state = "error"
		c.logger.Error().Err(err).Str("region", string(region)).Msg("failed to load region")
	}
	observability.RegionLoads().WithLabelValues(string(region), state).Inc()
}

func stateFor(n int) dto.LoadState {
	if n == 0 {
		return dto.StateEmpty
	}
	return dto.StateReady
}

// bind derives a context that ends with either the request or the view.
func (c *CommunityListController) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// OpenCreateDialog marks the create dialog as shown.
func (c *CommunityListController) OpenCreateDialog() {
	c.mu.Lock()
	c.dialogOpen = true
	c.mu.Unlock()
}

// CloseCreateDialog hides the create dialog without submitting.
func (c *CommunityListController) CloseCreateDialog() {
	c.mu.Lock()
	c.dialogOpen = false
	c.mu.Unlock()
}

// CreateCommunity validates and submits a new community. On success the dialog closes,
// the form resets and the joined and catalog regions are re-fetched.
func (c *CommunityListController) CreateCommunity(ctx context.Context, req dto.CreateCommunityRequest) (dto.CreateCommunityResult, error) {
	c.mu.Lock()
	c.dialogOpen = true
	c.mu.Unlock()

	req.Tags = normalizeTags(req.Tags)
	if err := c.validator.Struct(req); err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrInvalidCommunity, describeValidation(err))
		c.notify(msgCreateFailed+describeValidation(err), models.NotifyError)
		return dto.CreateCommunityResult{DialogOpen: true}, wrapped
	}

	bound, done := c.bind(ctx)
	created, err := c.provider.CreateCommunity(bound, c.auth, req)
	done()
	if err != nil {
		c.logger.Error().Err(err).Str("name", req.Name).Msg("failed to create community")
		c.notify(msgCreateFailed+friendzone.MessageOf(err, "Topluluk oluşturulamadı"), models.NotifyError)
		return dto.CreateCommunityResult{DialogOpen: true}, err
	}

	c.mu.Lock()
	c.dialogOpen = false
	c.mu.Unlock()

	c.notify(msgCreateSuccess, models.NotifySuccess)

	var group errgroup.Group
	group.Go(func() error { _ = c.LoadUserCommunities(ctx); return nil })
	group.Go(func() error { _ = c.LoadAllCommunities(ctx); return nil })
	_ = group.Wait()

	return dto.CreateCommunityResult{Community: created, DialogOpen: false, FormReset: true}, nil
}

// JoinCommunity joins a community, or redirects to its page when the session already belongs to it.
func (c *CommunityListController) JoinCommunity(ctx context.Context, id int64) (dto.JoinResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return dto.JoinResult{}, ErrViewClosed
	}
	if c.isMemberLocked(id) {
		c.mu.Unlock()
		return dto.JoinResult{CommunityID: id, Joined: true, Redirect: CommunityDetailPath(id)}, nil
	}
	if _, busy := c.joining[id]; busy {
		c.mu.Unlock()
		return dto.JoinResult{CommunityID: id}, ErrJoinInFlight
	}
	c.joining[id] = struct{}{}
	c.mu.Unlock()

	bound, done := c.bind(ctx)
	err := c.provider.Join(bound, c.auth, id)
	done()

	c.mu.Lock()
	delete(c.joining, id)
	if err == nil && !c.closed {
		c.markMemberLocked(id, true)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().Err(err).Int64("community_id", id).Msg("failed to join community")
		c.notify(msgJoinFailed+friendzone.MessageOf(err, "Topluluğa katılamadı"), models.NotifyError)
		return dto.JoinResult{CommunityID: id}, err
	}

	c.notify(msgJoinSuccess, models.NotifySuccess)
	if err := c.LoadUserCommunities(ctx); err != nil && !errors.Is(err, ErrViewClosed) {
		c.logger.Warn().Err(err).Msg("joined list reload failed after join")
	}

	return dto.JoinResult{CommunityID: id, Joined: true}, nil
}

func (c *CommunityListController) isMemberLocked(id int64) bool {
	for _, region := range c.regions {
		for _, community := range region.communities {
			if community.ID == id && community.IsMember {
				return true
			}
		}
	}
	for _, community := range c.regions[dto.RegionJoined].communities {
		if community.ID == id {
			return true
		}
	}
	return false
}

// markMemberLocked flips the membership flag on every card showing id.
func (c *CommunityListController) markMemberLocked(id int64, member bool) {
	for _, region := range c.regions {
		for i := range region.communities {
			if region.communities[i].ID == id {
				region.communities[i].IsMember = member
			}
		}
	}
}

// Search sets the case-insensitive name/description filter.
func (c *CommunityListController) Search(query string) dto.CardVisibility {
	c.mu.Lock()
	c.query = strings.TrimSpace(query)
	c.mu.Unlock()
	return c.Visible()
}

// FilterByCategory sets the exact category filter; empty shows every category.
func (c *CommunityListController) FilterByCategory(category string) dto.CardVisibility {
	c.mu.Lock()
	c.category = strings.TrimSpace(category)
	c.mu.Unlock()
	return c.Visible()
}

// Visible applies the category filter and then the search query to every rendered card.
func (c *CommunityListController) Visible() dto.CardVisibility {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibilityLocked()
}

func (c *CommunityListController) visibilityLocked() dto.CardVisibility {
	result := dto.CardVisibility{Query: c.query, Category: c.category, Visible: []int64{}, Hidden: []int64{}}
	seen := make(map[int64]struct{})

	for _, region := range []dto.Region{dto.RegionRecommended, dto.RegionAll} {
		for _, community := range c.regions[region].communities {
			if _, ok := seen[community.ID]; ok {
				continue
			}
			seen[community.ID] = struct{}{}
			if CardVisible(community, c.category, c.query) {
				result.Visible = append(result.Visible, community.ID)
			} else {
				result.Hidden = append(result.Hidden, community.ID)
			}
		}
	}
	return result
}

// CardVisible is filter composed with search: an exact category match (empty matches all)
// followed by a case-insensitive substring match on name and description.
func CardVisible(community models.Community, category, query string) bool {
	if category != "" && string(community.Category) != category {
		return false
	}
	return community.Matches(query)
}

// Snapshot returns an immutable copy of the view state.
func (c *CommunityListController) Snapshot() dto.ListSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := dto.ListSnapshot{
		Joined:           c.regionSnapshot(dto.RegionJoined),
		Recommended:      c.regionSnapshot(dto.RegionRecommended),
		All:              c.regionSnapshot(dto.RegionAll),
		Similar:          dto.SimilarRegion{State: c.similar.state, Users: append([]models.SimilarUser{}, c.similar.users...), Error: c.similar.err},
		Query:            c.query,
		Category:         c.category,
		Hidden:           c.visibilityLocked().Hidden,
		CreateDialogOpen: c.dialogOpen,
	}
	if c.auth.User != nil {
		user := *c.auth.User
		snapshot.User = &user
	}
	return snapshot
}

func (c *CommunityListController) regionSnapshot(name dto.Region) dto.CommunityRegion {
	region := c.regions[name]
	communities := make([]models.Community, len(region.communities))
	for i, community := range region.communities {
		community.Tags = append([]string(nil), community.Tags...)
		community.Members = append([]models.CommunityMember(nil), community.Members...)
		communities[i] = community
	}
	return dto.CommunityRegion{Name: name, State: region.state, Communities: communities, Error: region.err}
}

// Close discards the view. In-flight loads are cancelled and late results dropped.
func (c *CommunityListController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *CommunityListController) notify(message string, kind models.NotificationKind) {
	if c.notifier != nil {
		c.notifier.Notify(message, kind)
	}
}

func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, strings.ToLower(fieldErr.Field()))
	}
	return "geçersiz alanlar: " + strings.Join(fields, ", ")
}
