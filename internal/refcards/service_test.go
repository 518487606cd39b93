package refcards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcgcompanion/backend/pkg/db/models"
)

// fakeSearchRepo answers the three search queries from an in-memory catalog,
// treating names as similar when they share a prefix.
type fakeSearchRepo struct {
	cards []models.RefCard
	err   error

	queriesRun []string
}

func (f *fakeSearchRepo) FindByID(_ context.Context, id uuid.UUID) (*models.RefCard, error) {
	for _, c := range f.cards {
		if c.ID == id {
			card := c
			return &card, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSearchRepo) ByYearAndLocalID(_ context.Context, year int, localID string) ([]models.RefCard, error) {
	f.queriesRun = append(f.queriesRun, "year_local_id")
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RefCard
	for _, c := range f.cards {
		if c.SetYear != nil && *c.SetYear == year && c.TcgLocalID == localID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSearchRepo) ByYearAndName(_ context.Context, year int, name string) ([]models.RefCard, error) {
	f.queriesRun = append(f.queriesRun, "year_name")
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RefCard
	for _, c := range f.cards {
		if c.SetYear != nil && *c.SetYear == year && similarName(c.Name, name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSearchRepo) ByLocalIDAndName(_ context.Context, localID, name string) ([]models.RefCard, error) {
	f.queriesRun = append(f.queriesRun, "local_id_name")
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RefCard
	for _, c := range f.cards {
		if c.TcgLocalID == localID && similarName(c.Name, name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func similarName(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	n := min(len(a), len(b), 4)
	return n > 0 && a[:n] == b[:n]
}

func catalogCard(name, localID string, year int) models.RefCard {
	return models.RefCard{
		ID:         uuid.New(),
		TcgID:      "tcg-" + uuid.NewString(),
		TcgLocalID: localID,
		Name:       name,
		SetID:      uuid.New(),
		SetName:    "Base Set",
		SetYear:    &year,
	}
}

func TestFindMatchCandidatesRecoversFromOneWrongField(t *testing.T) {
	target := catalogCard("Pikachu", "58", 1999)
	decoy := catalogCard("Charizard", "4", 1999)

	cases := []struct {
		name      string
		hintName  string
		hintYear  int
		hintLocal string
	}{
		{"wrong name", "Raichu", 1999, "58"},
		{"wrong year", "Pikachu", 2005, "58"},
		{"wrong local id", "Pikachu", 1999, "99"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeSearchRepo{cards: []models.RefCard{target, decoy}}
			svc, err := NewService(repo, 0)
			require.NoError(t, err)

			candidates, err := svc.FindMatchCandidates(context.Background(), tc.hintName, tc.hintYear, tc.hintLocal)
			require.NoError(t, err)
			require.NotEmpty(t, candidates)
			assert.Equal(t, target.ID, candidates[0].ID)
		})
	}
}

func TestFindMatchCandidatesSkipsUnusableQueries(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc, err := NewService(repo, 0)
	require.NoError(t, err)

	// Year 0 disables both year-keyed queries.
	_, err = svc.FindMatchCandidates(context.Background(), "Pikachu", 0, "58")
	require.NoError(t, err)
	assert.Equal(t, []string{"local_id_name"}, repo.queriesRun)

	repo.queriesRun = nil
	// Empty name disables both name queries.
	_, err = svc.FindMatchCandidates(context.Background(), "  ", 1999, "58")
	require.NoError(t, err)
	assert.Equal(t, []string{"year_local_id"}, repo.queriesRun)

	repo.queriesRun = nil
	// Nothing usable at all runs no queries and returns an empty list.
	candidates, err := svc.FindMatchCandidates(context.Background(), "", 0, "")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Empty(t, repo.queriesRun)
}

func TestFindMatchCandidatesEmptyResultIsNotError(t *testing.T) {
	repo := &fakeSearchRepo{cards: []models.RefCard{catalogCard("Charizard", "4", 1999)}}
	svc, err := NewService(repo, 0)
	require.NoError(t, err)

	candidates, err := svc.FindMatchCandidates(context.Background(), "Mewtwo", 2011, "150")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestFindMatchCandidatesPropagatesRepoError(t *testing.T) {
	repo := &fakeSearchRepo{err: errors.New("db down")}
	svc, err := NewService(repo, 0)
	require.NoError(t, err)

	_, err = svc.FindMatchCandidates(context.Background(), "Pikachu", 1999, "58")
	assert.Error(t, err)
}

func TestFindMatchCandidatesHonorsLimit(t *testing.T) {
	cards := make([]models.RefCard, 0, 15)
	for i := 0; i < 15; i++ {
		cards = append(cards, catalogCard("Pikachu", "58", 1999))
	}
	repo := &fakeSearchRepo{cards: cards}
	svc, err := NewService(repo, 0)
	require.NoError(t, err)

	candidates, err := svc.FindMatchCandidates(context.Background(), "Pikachu", 1999, "58")
	require.NoError(t, err)
	assert.Len(t, candidates, DefaultCandidateLimit)
}

func TestGetRequiresID(t *testing.T) {
	svc, err := NewService(&fakeSearchRepo{}, 0)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.Nil)
	assert.Error(t, err)
}
