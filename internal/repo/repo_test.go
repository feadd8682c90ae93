package repo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试独立的内存库
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func newCar(owner, title, desc string, refs ...string) *domain.Car {
	c := &domain.Car{
		ID:          utils.NewID(),
		UserID:      owner,
		Title:       title,
		Description: desc,
		Tags:        domain.Tags{CarType: "suv", Company: "Toyota", Dealer: "Acme"},
	}
	for _, r := range refs {
		c.Images = append(c.Images, domain.CarImage{URL: "/uploads/" + r, PublicID: r})
	}
	return c
}

func publicIDs(c *domain.Car) []string {
	out := make([]string, 0, len(c.Images))
	for _, img := range c.Images {
		out = append(out, img.PublicID)
	}
	return out
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(setupTestDB(t))

	u := &domain.User{ID: utils.NewID(), Email: "a@example.com", PasswordHash: "h"}
	require.NoError(t, r.Create(ctx, u))

	got, err := r.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = r.FindByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Nil(t, got, "email lookup is case-sensitive")

	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = r.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	dup := &domain.User{ID: utils.NewID(), Email: "a@example.com", PasswordHash: "h"}
	assert.Error(t, r.Create(ctx, dup))
}

func TestCarRepo_CreateAndFindOwned(t *testing.T) {
	ctx := context.Background()
	r := NewCarRepo(setupTestDB(t))

	c := newCar("alice", "Red SUV", "clean", "a.jpg", "b.jpg", "c.jpg")
	require.NoError(t, r.Create(ctx, c))

	got, err := r.FindOwned(ctx, "alice", c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, publicIDs(got))
	assert.Equal(t, domain.Tags{CarType: "suv", Company: "Toyota", Dealer: "Acme"}, got.Tags)

	got, err = r.FindOwned(ctx, "bob", c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.FindOwned(ctx, "alice", utils.NewID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCarRepo_ListOwned(t *testing.T) {
	ctx := context.Background()
	r := NewCarRepo(setupTestDB(t))

	a1 := newCar("alice", "Red Toyota SUV", "family car", "1.jpg")
	a2 := newCar("alice", "Blue hatchback", "city RUNABOUT", "2.jpg")
	b1 := newCar("bob", "Red roadster", "weekend toy", "3.jpg")
	for _, c := range []*domain.Car{a1, a2, b1} {
		require.NoError(t, r.Create(ctx, c))
	}

	all, err := r.ListOwned(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, c := range all {
		assert.Equal(t, "alice", c.UserID)
		assert.Len(t, c.Images, 1)
	}

	hits, err := r.ListOwned(ctx, "alice", "red")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a1.ID, hits[0].ID)

	hits, err = r.ListOwned(ctx, "alice", "runabout")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a2.ID, hits[0].ID)

	hits, err = r.ListOwned(ctx, "alice", "family  runabout")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	none, err := r.ListOwned(ctx, "alice", "roadster")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	none, err = r.ListOwned(ctx, "carol", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCarRepo_ListOwned_LiteralWildcards(t *testing.T) {
	ctx := context.Background()
	r := NewCarRepo(setupTestDB(t))

	pct := newCar("alice", "100% original", "no repaint", "1.jpg")
	plain := newCar("alice", "Sedan", "daily driver", "2.jpg")
	bang := newCar("alice", "Wow!", "loud_exhaust", "3.jpg")
	for _, c := range []*domain.Car{pct, plain, bang} {
		require.NoError(t, r.Create(ctx, c))
	}

	cases := []struct {
		search string
		want   []string
	}{
		{"%", []string{pct.ID}},
		{"_", []string{bang.ID}},
		{"100%", []string{pct.ID}},
		{"!", []string{bang.ID}},
		{"loud_", []string{bang.ID}},
		{"d_ily", nil},
	}
	for _, tc := range cases {
		hits, err := r.ListOwned(ctx, "alice", tc.search)
		require.NoError(t, err, tc.search)
		var ids []string
		for _, c := range hits {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, tc.want, ids, tc.search)
	}
}

func TestCarRepo_SaveReplacesImagesInOrder(t *testing.T) {
	ctx := context.Background()
	r := NewCarRepo(setupTestDB(t))

	c := newCar("alice", "Red SUV", "clean", "a.jpg", "b.jpg")
	require.NoError(t, r.Create(ctx, c))

	c.Title = "Dark red SUV"
	c.Tags.Dealer = "Other"
	c.Images = append(c.Images,
		domain.CarImage{URL: "/uploads/c.jpg", PublicID: "c.jpg"},
		domain.CarImage{URL: "/uploads/d.jpg", PublicID: "d.jpg"},
	)
	require.NoError(t, r.Save(ctx, c))

	got, err := r.FindOwned(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dark red SUV", got.Title)
	assert.Equal(t, "Other", got.Tags.Dealer)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, publicIDs(got))

	c.Images = []domain.CarImage{{URL: "/uploads/z.jpg", PublicID: "z.jpg"}}
	require.NoError(t, r.Save(ctx, c))
	got, err = r.FindOwned(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"z.jpg"}, publicIDs(got))

	stranger := *c
	stranger.UserID = "bob"
	assert.True(t, domain.IsNotFound(r.Save(ctx, &stranger)))
}

func TestCarRepo_DeleteOwned(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := NewCarRepo(db)

	c := newCar("alice", "Red SUV", "clean", "a.jpg", "b.jpg")
	require.NoError(t, r.Create(ctx, c))

	ok, err := r.DeleteOwned(ctx, "bob", c.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	refs, err := r.ReferencedPublicIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	ok, err = r.DeleteOwned(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.FindOwned(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var n int64
	require.NoError(t, db.Model(&domain.CarImage{}).Count(&n).Error)
	assert.Zero(t, n)
}
