package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"catalog/internal/audit/handler/mocks"
	"catalog/pkg/domain"
	audit "catalog/pkg/platform/audit"
)

type AuditHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuditHandlerSuite))
}

func (s *AuditHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	for _, rt := range h.Routes() {
		s.router.Method(rt.Method, rt.Pattern, rt.Handler)
	}
}

func (s *AuditHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuditHandlerSuite) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (s *AuditHandlerSuite) TestFilters() {
	s.Run("every filter is forwarded", func() {
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 1, 31, 23, 59, 59, 999999000, time.UTC)
		s.service.EXPECT().List(gomock.Any(), audit.Filter{
			ActorID:    audit.Int64(2),
			Action:     audit.ActionProductCreated,
			EntityType: audit.EntityProduct,
			EntityID:   audit.Int64(7),
			From:       &from,
			To:         &to,
			Limit:      5,
			Offset:     5,
		}).Return(&audit.Page{}, nil)

		rr := s.get("/audit?userId=2&action=product_created&entityType=Product&entityId=7&startDate=2026-01-01&endDate=2026-01-31&page=2&limit=5")
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"totalItems":0,"currentPage":2,"totalPages":0,"items":[]}`, rr.Body.String())
	})

	s.Run("RFC3339 bounds are used as given", func() {
		from := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		s.service.EXPECT().List(gomock.Any(), audit.Filter{From: &from, Limit: 10}).Return(&audit.Page{}, nil)

		rr := s.get("/audit?startDate=2026-01-01T12:00:00%2B02:00")
		s.Equal(http.StatusOK, rr.Code)
	})

	for _, path := range []string{
		"/audit?userId=abc",
		"/audit?entityId=-1",
		"/audit?startDate=yesterday",
		"/audit?endDate=2026-13-01",
	} {
		s.Run("rejects "+path, func() {
			rr := s.get(path)
			s.Equal(http.StatusBadRequest, rr.Code)
			s.Contains(rr.Body.String(), `"error":"bad_request"`)
		})
	}
}

func (s *AuditHandlerSuite) TestItemsIncludeActor() {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s.service.EXPECT().List(gomock.Any(), gomock.Any()).Return(&audit.Page{
		Total: 11,
		Records: []*audit.Record{{
			ID:         4,
			ActorID:    2,
			Action:     audit.ActionProductDeleted,
			EntityType: audit.EntityProduct,
			EntityID:   audit.Int64(7),
			Details:    []byte(`{}`),
			CreatedAt:  at,
			Actor:      &audit.Actor{ID: 2, Username: "op", Role: domain.RoleOperator},
		}},
	}, nil)

	rr := s.get("/audit")
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`{
		"totalItems":11,"currentPage":1,"totalPages":2,
		"items":[{
			"id":4,"userId":2,"action":"product_deleted","entityType":"Product","entityId":7,
			"details":{},"createdAt":"2026-02-03T04:05:06Z",
			"user":{"id":2,"username":"op","role":"operator"}
		}]}`, rr.Body.String())
}
