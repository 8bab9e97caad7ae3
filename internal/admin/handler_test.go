package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"attestry/internal/platform/logger"
)

const adminToken = "admin-suite-token"

type AdminHandlerSuite struct {
	suite.Suite
	tokenHash string
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupSuite() {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	s.Require().NoError(err)
	s.tokenHash = string(hash)
}

func (s *AdminHandlerSuite) serve(bootstrapper Bootstrapper, tokenHash string) *httptest.Server {
	router := chi.NewRouter()
	New(bootstrapper, tokenHash, logger.New()).Register(router)
	server := httptest.NewServer(router)
	s.T().Cleanup(server.Close)
	return server
}

func (s *AdminHandlerSuite) bootstrap(server *httptest.Server, auth string) *http.Response {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		server.URL+"/admin/registry/bootstrap", nil)
	s.Require().NoError(err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := server.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *AdminHandlerSuite) TestBootstrap() {
	s.Run("runs the bootstrapper with a valid token", func() {
		ran := false
		server := s.serve(BootstrapFunc(func(context.Context) error {
			ran = true
			return nil
		}), s.tokenHash)

		resp := s.bootstrap(server, "Bearer "+adminToken)
		s.Equal(http.StatusNoContent, resp.StatusCode)
		s.True(ran)
	})

	s.Run("rejects a wrong token without running the bootstrapper", func() {
		ran := false
		server := s.serve(BootstrapFunc(func(context.Context) error {
			ran = true
			return nil
		}), s.tokenHash)

		resp := s.bootstrap(server, "Bearer not-the-token")
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
		s.False(ran)
	})

	s.Run("rejects a missing Authorization header", func() {
		server := s.serve(NoopBootstrapper, s.tokenHash)
		resp := s.bootstrap(server, "")
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("empty hash disables the surface entirely", func() {
		server := s.serve(NoopBootstrapper, "")
		resp := s.bootstrap(server, "Bearer "+adminToken)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("surfaces bootstrap failures as internal errors", func() {
		server := s.serve(BootstrapFunc(func(context.Context) error {
			return errors.New("schema migration failed")
		}), s.tokenHash)

		resp := s.bootstrap(server, "Bearer "+adminToken)
		s.Equal(http.StatusInternalServerError, resp.StatusCode)
	})
}
