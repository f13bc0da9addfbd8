package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lakekeeper/lakekeeper/internal/catalog/extiface"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware_NilVerifierTrustsPrincipalHeader(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(nil))
	var seen string
	router.GET("/whoami", func(c *gin.Context) {
		seen = principalFrom(c).ID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Principal-Id", "alice")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "alice" {
		t.Fatalf("expected principal %q, got %q", "alice", seen)
	}
}

func TestAuthMiddleware_NilVerifierDefaultsToAnonymous(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(nil))
	var seen string
	router.GET("/whoami", func(c *gin.Context) {
		seen = principalFrom(c).ID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "anonymous" {
		t.Fatalf("expected anonymous principal, got %q", seen)
	}
}

type fakeVerifier struct {
	principal extiface.Principal
	err       error
}

func (f fakeVerifier) Verify(ctx context.Context, bearerToken string) (extiface.Principal, error) {
	if f.err != nil {
		return extiface.Principal{}, f.err
	}
	return f.principal, nil
}

func TestAuthMiddleware_RejectsMissingBearerToken(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(fakeVerifier{}))
	router.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_AcceptsValidBearerToken(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(fakeVerifier{principal: extiface.Principal{Subject: "bob"}}))
	var seen string
	router.GET("/whoami", func(c *gin.Context) {
		seen = principalFrom(c).ID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || seen != "bob" {
		t.Fatalf("expected 200 and principal bob, got %d / %q", w.Code, seen)
	}
}
