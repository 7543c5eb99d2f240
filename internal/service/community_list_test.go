package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/models"
)

func newList(p *stubProvider, notifier Notifier) *CommunityListController {
	return NewCommunityListController(p, testAuth(), nil, notifier, zerolog.Nop())
}

func TestLoadIsolatesRegionFailures(t *testing.T) {
	failures := map[string]func(p *stubProvider){
		"joined": func(p *stubProvider) {
			p.fetchJoined = func(context.Context) ([]models.Community, error) { return nil, friendzone.ErrTransport }
		},
		"recommended": func(p *stubProvider) {
			p.fetchRecommended = func(context.Context) ([]models.Community, error) {
				return nil, &friendzone.APIError{Status: 500, Message: "Öneriler alınamadı"}
			}
		},
		"all": func(p *stubProvider) {
			p.fetchAll = func(context.Context) ([]models.Community, error) { return nil, friendzone.ErrMalformed }
		},
		"similar": func(p *stubProvider) {
			p.fetchSimilar = func(context.Context) ([]models.SimilarUser, error) { return nil, errBoom }
		},
	}

	for region, fail := range failures {
		t.Run(region, func(t *testing.T) {
			p := newStub()
			fail(p)
			list := newList(p, nil)
			defer list.Close()

			list.Load(context.Background())
			snapshot := list.Snapshot()

			states := map[string]dto.LoadState{
				"joined":      snapshot.Joined.State,
				"recommended": snapshot.Recommended.State,
				"all":         snapshot.All.State,
				"similar":     snapshot.Similar.State,
			}
			for name, state := range states {
				if name == region {
					require.Equal(t, dto.StateError, state, name)
					continue
				}
				require.Equal(t, dto.StateReady, state, name)
			}
		})
	}
}

func TestRegionErrorCarriesAPIMessage(t *testing.T) {
	p := newStub()
	p.fetchRecommended = func(context.Context) ([]models.Community, error) {
		return nil, &friendzone.APIError{Status: 500, Message: "Öneriler alınamadı"}
	}
	list := newList(p, nil)
	defer list.Close()

	require.Error(t, list.LoadRecommended(context.Background()))
	require.Equal(t, "Öneriler alınamadı", list.Snapshot().Recommended.Error)
}

func TestEmptyRegion(t *testing.T) {
	p := newStub()
	p.fetchSimilar = func(context.Context) ([]models.SimilarUser, error) { return []models.SimilarUser{}, nil }
	list := newList(p, nil)
	defer list.Close()

	require.NoError(t, list.LoadSimilarUsers(context.Background()))
	require.Equal(t, dto.StateEmpty, list.Snapshot().Similar.State)
}

func TestJoinThenRender(t *testing.T) {
	p := newStub()
	notifier := &recordingNotifier{}
	list := newList(p, notifier)
	defer list.Close()

	ctx := context.Background()
	list.Load(ctx)
	require.Equal(t, []int64{2}, ids(list.Snapshot().Joined.Communities))

	result, err := list.JoinCommunity(ctx, 1)
	require.NoError(t, err)
	require.True(t, result.Joined)
	require.Empty(t, result.Redirect)
	require.Equal(t, models.NotifySuccess, notifier.last().Kind)
	require.Equal(t, "Topluluğa başarıyla katıldın!", notifier.last().Message)

	snapshot := list.Snapshot()
	require.ElementsMatch(t, []int64{1, 2}, ids(snapshot.Joined.Communities))
	for _, region := range []dto.CommunityRegion{snapshot.Recommended, snapshot.All} {
		for _, community := range region.Communities {
			if community.ID == 1 {
				require.True(t, community.IsMember, region.Name)
			}
		}
	}
	require.Equal(t, int32(1), p.joinCalls.Load())
}

func TestJoinAlreadyMemberRedirectsWithoutPost(t *testing.T) {
	p := newStub()
	list := newList(p, nil)
	defer list.Close()

	list.Load(context.Background())

	result, err := list.JoinCommunity(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "/communities/2", result.Redirect)
	require.True(t, result.Joined)
	require.Zero(t, p.joinCalls.Load())

	// a card flipped by an earlier join redirects too
	_, err = list.JoinCommunity(context.Background(), 4)
	require.NoError(t, err)
	result, err = list.JoinCommunity(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, "/communities/4", result.Redirect)
	require.Equal(t, int32(1), p.joinCalls.Load())
}

func TestJoinFailureKeepsState(t *testing.T) {
	p := newStub()
	p.join = func(context.Context, int64) error {
		return &friendzone.APIError{Status: 400, Message: "Topluluk dolu"}
	}
	notifier := &recordingNotifier{}
	list := newList(p, notifier)
	defer list.Close()

	list.Load(context.Background())
	before := list.Snapshot()

	_, err := list.JoinCommunity(context.Background(), 1)
	require.Error(t, err)

	require.Equal(t, before.All.Communities, list.Snapshot().All.Communities)
	require.Equal(t, models.NotifyError, notifier.last().Kind)
	require.Equal(t, "Topluluğa katılırken bir hata oluştu: Topluluk dolu", notifier.last().Message)

	// the pending marker is released so the user can retry
	p.join = nil
	_, err = list.JoinCommunity(context.Background(), 1)
	require.NoError(t, err)
}

func TestConcurrentJoinIsRejected(t *testing.T) {
	p := newStub()
	release := make(chan struct{})
	entered := make(chan struct{})
	p.join = func(context.Context, int64) error {
		close(entered)
		<-release
		return nil
	}
	list := newList(p, nil)
	defer list.Close()
	list.Load(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := list.JoinCommunity(context.Background(), 1)
		done <- err
	}()
	<-entered

	_, err := list.JoinCommunity(context.Background(), 1)
	require.ErrorIs(t, err, ErrJoinInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSearchAndFilterCompose(t *testing.T) {
	list := newList(newStub(), nil)
	defer list.Close()
	list.Load(context.Background())

	all := list.Snapshot().All.Communities
	queries := []string{"", "SPOR", "sevenler", "teknoloji", "zzz", "a"}
	categories := []string{"", "sports", "arts", "outdoor", "technology", "social"}

	for _, category := range categories {
		for _, query := range queries {
			list.FilterByCategory(category)
			visible := list.Search(query)

			want := []int64{}
			for _, community := range all {
				if category != "" && string(community.Category) != category {
					continue
				}
				name := strings.ToLower(community.Name)
				description := strings.ToLower(community.Description)
				needle := strings.ToLower(query)
				if strings.Contains(name, needle) || strings.Contains(description, needle) {
					want = append(want, community.ID)
				}
			}
			require.ElementsMatch(t, want, visible.Visible, "category=%q query=%q", category, query)
			require.Len(t, visible.Hidden, len(all)-len(want))
		}
	}
}

func TestSearchMatchesDescriptionCaseInsensitive(t *testing.T) {
	list := newList(newStub(), nil)
	defer list.Close()
	list.Load(context.Background())

	visible := list.Search("KAMP")
	require.Equal(t, []int64{4}, visible.Visible)

	visible = list.FilterByCategory("arts")
	require.Empty(t, visible.Visible)

	visible = list.FilterByCategory("")
	require.Equal(t, []int64{4}, visible.Visible)
	require.True(t, list.Snapshot().IsHidden(1))
}

func TestCreateCommunity(t *testing.T) {
	p := newStub()
	notifier := &recordingNotifier{}
	list := newList(p, notifier)
	defer list.Close()
	list.Load(context.Background())
	list.OpenCreateDialog()

	result, err := list.CreateCommunity(context.Background(), dto.CreateCommunityRequest{
		Name:        "Satranç Kulübü",
		Description: "Hafta içi akşam turnuvaları",
		Category:    "social",
		MaxMembers:  16,
		Tags:        []string{" satranç ", "", "strateji"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Community)
	require.False(t, result.DialogOpen)
	require.True(t, result.FormReset)
	require.Equal(t, []string{"satranç", "strateji"}, result.Community.Tags)
	require.Equal(t, int64(7), result.Community.CreatedBy)
	require.Equal(t, "Topluluk başarıyla oluşturuldu!", notifier.last().Message)

	snapshot := list.Snapshot()
	require.False(t, snapshot.CreateDialogOpen)
	require.Contains(t, ids(snapshot.Joined.Communities), result.Community.ID)
	require.Contains(t, ids(snapshot.All.Communities), result.Community.ID)
}

func TestCreateCommunityValidation(t *testing.T) {
	p := newStub()
	called := false
	p.create = func(context.Context, dto.CreateCommunityRequest) (*models.Community, error) {
		called = true
		return nil, nil
	}
	notifier := &recordingNotifier{}
	list := newList(p, notifier)
	defer list.Close()

	result, err := list.CreateCommunity(context.Background(), dto.CreateCommunityRequest{
		Name:       "ab",
		Category:   "cooking",
		MaxMembers: 1,
	})
	require.ErrorIs(t, err, ErrInvalidCommunity)
	require.True(t, result.DialogOpen)
	require.False(t, called)
	require.Equal(t, models.NotifyError, notifier.last().Kind)
	require.True(t, list.Snapshot().CreateDialogOpen)
}

func TestCreateCommunityAPIError(t *testing.T) {
	p := newStub()
	p.create = func(context.Context, dto.CreateCommunityRequest) (*models.Community, error) {
		return nil, &friendzone.APIError{Status: 409, Message: "Bu isim kullanılıyor"}
	}
	notifier := &recordingNotifier{}
	list := newList(p, notifier)
	defer list.Close()

	result, err := list.CreateCommunity(context.Background(), dto.CreateCommunityRequest{
		Name: "Satranç Kulübü", Description: "x", Category: "social", MaxMembers: 10,
	})
	require.Error(t, err)
	require.True(t, result.DialogOpen)
	require.Equal(t, "Topluluk oluşturulurken bir hata oluştu: Bu isim kullanılıyor", notifier.last().Message)
}

func TestClosedViewDropsLateResponses(t *testing.T) {
	p := newStub()
	entered := make(chan struct{})
	release := make(chan struct{})
	p.fetchAll = func(ctx context.Context) ([]models.Community, error) {
		close(entered)
		<-release
		<-ctx.Done()
		return []models.Community{{ID: 99, Name: "stale"}}, nil
	}
	list := newList(p, nil)

	done := make(chan error, 1)
	go func() { done <- list.LoadAllCommunities(context.Background()) }()
	<-entered

	list.Close()
	close(release)

	err := <-done
	require.True(t, errors.Is(err, ErrViewClosed))
	require.Equal(t, dto.StateLoading, list.Snapshot().All.State)
	require.Empty(t, list.Snapshot().All.Communities)
}

func TestLoadRegionUnknown(t *testing.T) {
	list := newList(newStub(), nil)
	defer list.Close()
	require.Error(t, list.LoadRegion(context.Background(), dto.Region("nope")))
	require.NoError(t, list.LoadRegion(context.Background(), dto.RegionAll))
}

func TestStartSettlesRegionsIndependently(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	p := newStub()
	p.fetchSimilar = func(ctx context.Context) ([]models.SimilarUser, error) {
		select {
		case <-release:
			return p.Provider.FetchSimilar(ctx, testAuth())
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	list := newList(p, nil)
	defer list.Close()

	started := time.Now()
	list.Start()
	require.Less(t, time.Since(started), 50*time.Millisecond)

	budget, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.Eventually(t, func() bool {
		return list.Snapshot().Joined.State == dto.StateReady
	}, time.Second, 5*time.Millisecond)
	require.False(t, list.Settle(budget))

	snapshot := list.Snapshot()
	require.Equal(t, dto.StateReady, snapshot.Recommended.State)
	require.Equal(t, dto.StateReady, snapshot.All.State)
	require.Equal(t, dto.StateLoading, snapshot.Similar.State)

	close(release)
	_, err := list.AwaitRegion(context.Background(), dto.RegionSimilar)
	require.NoError(t, err)
	require.Equal(t, dto.StateReady, list.Snapshot().Similar.State)
	require.True(t, list.Settle(context.Background()))

	waited, err := list.AwaitRegion(context.Background(), dto.RegionJoined)
	require.NoError(t, err)
	require.False(t, waited)
}

func TestCloseCancelsStartedLoads(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := newStub()
	p.fetchAll = func(ctx context.Context) ([]models.Community, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	list := newList(p, nil)
	list.Start()

	list.Close()
	require.True(t, list.Settle(context.Background()))
}
