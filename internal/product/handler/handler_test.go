package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"catalog/internal/product/handler/mocks"
	"catalog/internal/product/models"
	dErrors "catalog/pkg/domain-errors"
)

type ProductHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestProductHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProductHandlerSuite))
}

func (s *ProductHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	for _, rt := range h.Routes() {
		s.router.Method(rt.Method, rt.Pattern, rt.Handler)
	}
}

func (s *ProductHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ProductHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func widget() *models.Product {
	at := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	return &models.Product{ID: 7, Name: "Widget", Category: "Tools", Price: 9.99, Stock: 5, CreatedAt: at, UpdatedAt: at}
}

func (s *ProductHandlerSuite) TestList() {
	s.Run("passes filters, sort and paging", func() {
		s.service.EXPECT().List(gomock.Any(), models.ListQuery{
			Search:   "wid",
			Category: "Tools",
			SortBy:   models.SortPrice,
			Desc:     true,
			Limit:    2,
			Offset:   2,
		}).Return(&models.ListResult{Total: 5, Products: []*models.Product{widget()}}, nil)

		rr := s.do(http.MethodGet, "/products?search=wid&category=Tools&sortBy=price&order=desc&page=2&limit=2", "")
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"totalItems":5,"currentPage":2,"totalPages":3`)
		s.Contains(rr.Body.String(), `"name":"Widget"`)
	})

	s.Run("defaults and an empty page", func() {
		s.service.EXPECT().List(gomock.Any(), models.ListQuery{
			SortBy: models.SortCreatedAt,
			Desc:   true,
			Limit:  10,
		}).Return(&models.ListResult{}, nil)

		rr := s.do(http.MethodGet, "/products?sortBy=password&page=-3&limit=abc", "")
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"totalItems":0,"currentPage":1,"totalPages":0,"items":[]}`, rr.Body.String())
	})

	s.Run("store failure does not leak", func() {
		s.service.EXPECT().List(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("connection reset"), dErrors.CodeInternal, "failed to list products"))

		rr := s.do(http.MethodGet, "/products", "")
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.JSONEq(`{"error":"internal_error"}`, rr.Body.String())
	})
}

func (s *ProductHandlerSuite) TestGet() {
	s.Run("found", func() {
		s.service.EXPECT().Get(gomock.Any(), int64(7)).Return(widget(), nil)
		rr := s.do(http.MethodGet, "/products/7", "")
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"id":7`)
	})

	s.Run("missing", func() {
		s.service.EXPECT().Get(gomock.Any(), int64(8)).Return(nil, dErrors.New(dErrors.CodeNotFound, "product not found"))
		rr := s.do(http.MethodGet, "/products/8", "")
		s.Equal(http.StatusNotFound, rr.Code)
	})

	s.Run("non-numeric id is 404 without a lookup", func() {
		rr := s.do(http.MethodGet, "/products/abc", "")
		s.Equal(http.StatusNotFound, rr.Code)
		s.JSONEq(`{"error":"not_found","error_description":"product not found"}`, rr.Body.String())
	})
}

func (s *ProductHandlerSuite) TestCreate() {
	s.Run("created", func() {
		price, stock := 9.99, 5
		s.service.EXPECT().Create(gomock.Any(), models.Input{Name: "Widget", Category: "Tools", Price: &price, Stock: &stock}).
			Return(widget(), nil)

		rr := s.do(http.MethodPost, "/products", `{"name":"Widget","category":"Tools","price":9.99,"stock":5}`)
		s.Equal(http.StatusCreated, rr.Code)
		s.Contains(rr.Body.String(), `"createdAt":"2026-04-02T08:30:00Z"`)
	})

	s.Run("violations are listed", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.Validation([]dErrors.Violation{
			{Field: "price", Message: "price must be a positive number"},
			{Field: "stock", Message: "stock must be a non-negative integer"},
		}))

		rr := s.do(http.MethodPost, "/products", `{"name":"Widget","category":"Tools","price":0,"stock":-1}`)
		s.Equal(http.StatusBadRequest, rr.Code)
		s.JSONEq(`{
			"error":"validation_error",
			"error_description":"validation failed",
			"errors":[
				{"field":"price","message":"price must be a positive number"},
				{"field":"stock","message":"stock must be a non-negative integer"}
			]}`, rr.Body.String())
	})

	s.Run("malformed JSON is 400", func() {
		rr := s.do(http.MethodPost, "/products", `{"name":`)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

func (s *ProductHandlerSuite) TestUpdate() {
	s.Run("updated", func() {
		s.service.EXPECT().Update(gomock.Any(), int64(7), gomock.Any()).Return(widget(), nil)
		rr := s.do(http.MethodPut, "/products/7", `{"name":"Widget","category":"Tools","price":9.99,"stock":5}`)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("non-positive id is 404", func() {
		rr := s.do(http.MethodPut, "/products/0", `{}`)
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *ProductHandlerSuite) TestDelete() {
	s.Run("no content", func() {
		s.service.EXPECT().Delete(gomock.Any(), int64(7)).Return(nil)
		rr := s.do(http.MethodDelete, "/products/7", "")
		s.Equal(http.StatusNoContent, rr.Code)
		s.Empty(rr.Body.String())
	})

	s.Run("missing", func() {
		s.service.EXPECT().Delete(gomock.Any(), int64(9)).Return(dErrors.New(dErrors.CodeNotFound, "product not found"))
		rr := s.do(http.MethodDelete, "/products/9", "")
		s.Equal(http.StatusNotFound, rr.Code)
	})
}
