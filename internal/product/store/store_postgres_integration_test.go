//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"catalog/internal/product/models"
	"catalog/internal/product/store"
	"catalog/pkg/platform/sentinel"
	"catalog/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	base     time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Reset(context.Background()))
}

func (s *PostgresStoreSuite) seed(name, category string, price float64, stock int, offset time.Duration) *models.Product {
	p := &models.Product{
		Name:      name,
		Category:  category,
		Price:     price,
		Stock:     stock,
		CreatedAt: s.base.Add(offset),
		UpdatedAt: s.base.Add(offset),
	}
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

func names(res *models.ListResult) []string {
	out := make([]string, 0, len(res.Products))
	for _, p := range res.Products {
		out = append(out, p.Name)
	}
	return out
}

func (s *PostgresStoreSuite) TestCRUD() {
	ctx := context.Background()
	p := s.seed("Widget", "Tools", 9.99, 5, 0)
	s.NotZero(p.ID)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Widget", got.Name)
	s.InDelta(9.99, got.Price, 0.0001)
	s.True(p.CreatedAt.Equal(got.CreatedAt))

	got.Stock = 0
	got.UpdatedAt = s.base.Add(time.Hour)
	s.Require().NoError(s.store.Update(ctx, got))

	again, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Zero(again.Stock)
	s.True(s.base.Add(time.Hour).Equal(again.UpdatedAt))

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	_, err = s.store.FindByID(ctx, p.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	s.True(errors.Is(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound))
	s.True(errors.Is(s.store.Update(ctx, again), sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	s.seed("Widget", "Tools", 9.99, 5, 0)
	s.seed("Hammer", "Tools", 19.5, 2, time.Minute)
	s.seed("Teapot", "Kitchen", 14, 0, 2*time.Minute)
	s.seed("Toolbox", "Storage", 30, 1, 3*time.Minute)

	s.Run("default order is newest first", func() {
		res, err := s.store.List(ctx, models.ListQuery{SortBy: models.SortCreatedAt, Desc: true, Limit: 10})
		s.Require().NoError(err)
		s.Equal(4, res.Total)
		s.Equal([]string{"Toolbox", "Teapot", "Hammer", "Widget"}, names(res))
	})

	s.Run("search matches name or category case-insensitively", func() {
		res, err := s.store.List(ctx, models.ListQuery{Search: "TOOL", SortBy: models.SortName, Limit: 10})
		s.Require().NoError(err)
		s.Equal([]string{"Hammer", "Toolbox", "Widget"}, names(res))
	})

	s.Run("search treats wildcards literally", func() {
		res, err := s.store.List(ctx, models.ListQuery{Search: "%", SortBy: models.SortName, Limit: 10})
		s.Require().NoError(err)
		s.Zero(res.Total)
	})

	s.Run("category is exact", func() {
		res, err := s.store.List(ctx, models.ListQuery{Category: "tools", SortBy: models.SortName, Limit: 10})
		s.Require().NoError(err)
		s.Zero(res.Total)

		res, err = s.store.List(ctx, models.ListQuery{Category: "Tools", SortBy: models.SortPrice, Desc: true, Limit: 10})
		s.Require().NoError(err)
		s.Equal([]string{"Hammer", "Widget"}, names(res))
	})

	s.Run("pagination reports the full total", func() {
		res, err := s.store.List(ctx, models.ListQuery{SortBy: models.SortName, Limit: 3, Offset: 3})
		s.Require().NoError(err)
		s.Equal(4, res.Total)
		s.Equal([]string{"Widget"}, names(res))
	})
}
