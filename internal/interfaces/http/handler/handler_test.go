package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/perfume/backend/internal/application/catalog"
	identityapp "github.com/perfume/backend/internal/application/identity"
	mediaapp "github.com/perfume/backend/internal/application/media"
	orderapp "github.com/perfume/backend/internal/application/order"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/domain/order"
	"github.com/perfume/backend/internal/domain/shared/valueobject"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"github.com/perfume/backend/internal/infrastructure/cache"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/infrastructure/persistence"
	"github.com/perfume/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope mirrors dto.Response with the data left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

func doJSON(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// asUser attaches claims the way the JWT middleware does
func asUser(id uuid.UUID, role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &auth.Claims{UserID: id.String(), Email: "user@example.com", Role: string(role)}
		c.Set(middleware.JWTClaimsKey, claims)
		c.Set(middleware.JWTUserIDKey, claims.UserID)
		c.Set(middleware.JWTEmailKey, claims.Email)
		c.Set(middleware.JWTRoleKey, claims.Role)
		c.Next()
	}
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Language())
	r.Use(mw...)
	return r
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStorage) EnsureBucket(context.Context) error { return nil }

func (s *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memStorage) PresignPut(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://bucket.example.com/" + key + "?signed=1", time.Now().Add(expiresIn), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) Stat(_ context.Context, key string) (*mediaapp.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, nil
	}
	return &mediaapp.ObjectInfo{Size: int64(len(data)), ContentType: s.types[key]}, nil
}

func (s *memStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type testEnv struct {
	db       *persistence.Database
	jwt      *auth.JWTService
	auth     *identityapp.AuthService
	users    *identityapp.UserService
	products *catalogapp.ProductService
	orders   *orderapp.Service
	media    *mediaapp.Service
	storage  *memStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-key-32-chars!",
		RefreshSecret:          "handler-test-refresh-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "perfume-test",
		MaxRefreshCount:        5,
	})
	revoked := auth.NewMemoryRevocationStore()
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	catalogCache := cache.NewInMemoryCache()
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })
	storage := newMemStorage()

	return &testEnv{
		db:       db,
		jwt:      jwtSvc,
		auth:     identityapp.NewAuthService(userRepo, jwtSvc, revoked, nil, nil),
		users:    identityapp.NewUserService(userRepo, jwtSvc, revoked, nil, nil),
		products: catalogapp.NewProductService(productRepo, categoryRepo, catalogCache, nil, catalogapp.ProductServiceConfig{Currency: "EGP"}, nil),
		orders: orderapp.NewService(orderapp.ServiceConfig{
			Orders:       persistence.NewGormOrderRepository(db.DB),
			Products:     productRepo,
			Transactions: db,
			Idempotency:  idempotency,
			CatalogCache: catalogCache,
			Shipping: order.ShippingPolicy{
				FlatFee:       valueobject.MustNewMoney("50", "EGP"),
				FreeThreshold: valueobject.MustNewMoney("1000", "EGP"),
			},
			Currency: "EGP",
		}),
		media:   mediaapp.NewService(persistence.NewGormMediaRepository(db.DB), storage, nil, mediaapp.ServiceConfig{MaxUploadSize: 1 << 20}, nil),
		storage: storage,
	}
}

func (e *testEnv) product(t *testing.T, slug, price string, stock int) *catalogapp.ProductResponse {
	t.Helper()
	p, err := e.products.Create(context.Background(), catalogapp.CreateProductRequest{
		Slug:  slug,
		Name:  map[string]string{"en": "Oud " + slug, "ar": "عود " + slug},
		Brand: "Maison",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}, "en")
	require.NoError(t, err)
	return p
}
