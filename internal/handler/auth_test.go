package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/canteenhq/api/internal/auth"
	"github.com/canteenhq/api/internal/database"
	"github.com/canteenhq/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock AuthStore ---

type mockAuthStore struct {
	createFn     func(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error)
	getByEmailFn func(ctx context.Context, email string) (database.Profile, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (database.Profile, error)
}

func (m *mockAuthStore) CreateProfile(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error) {
	if m.createFn != nil {
		return m.createFn(ctx, arg)
	}
	return database.Profile{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetProfileByEmail(ctx context.Context, email string) (database.Profile, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return database.Profile{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetProfileByID(ctx context.Context, id uuid.UUID) (database.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return database.Profile{}, pgx.ErrNoRows
}

// --- Helpers ---

func authRouter(store AuthStore) *chi.Mux {
	h := NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterProtectedRoutes(r)
	})
	return r
}

func hashedProfile(t *testing.T, email, password string) database.Profile {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.Profile{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       "Asha Nair",
		EmployeeID:     "EMP-1001",
	}
}

// --- Tests ---

func TestRegister_HappyPath(t *testing.T) {
	store := &mockAuthStore{
		createFn: func(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error) {
			if arg.IsAdmin {
				t.Error("new accounts must never be created as admin")
			}
			if arg.HashedPassword == "secret-password" {
				t.Error("password stored in plain text")
			}
			return database.Profile{
				ID:         uuid.New(),
				Email:      arg.Email,
				FullName:   arg.FullName,
				EmployeeID: arg.EmployeeID,
			}, nil
		},
	}
	router := authRouter(store)

	rr := doRawJSONRequest(t, router, "POST", "/auth/register", map[string]interface{}{
		"email":       "asha@example.com",
		"password":    "secret-password",
		"full_name":   "Asha Nair",
		"employee_id": "EMP-1001",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == nil || resp["refresh_token"] == nil {
		t.Error("token pair missing from response")
	}
	user := resp["user"].(map[string]interface{})
	if user["is_admin"] != false {
		t.Error("registered user must not be admin")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	router := authRouter(&mockAuthStore{})

	rr := doRawJSONRequest(t, router, "POST", "/auth/register", map[string]interface{}{
		"email":       "asha@example.com",
		"password":    "short",
		"full_name":   "Asha Nair",
		"employee_id": "EMP-1001",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := &mockAuthStore{
		createFn: func(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error) {
			return database.Profile{}, &pgconn.PgError{Code: "23505", ConstraintName: "profiles_email_key"}
		},
	}
	router := authRouter(store)

	rr := doRawJSONRequest(t, router, "POST", "/auth/register", map[string]interface{}{
		"email":       "asha@example.com",
		"password":    "secret-password",
		"full_name":   "Asha Nair",
		"employee_id": "EMP-1001",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
}

func TestLogin_HappyPath(t *testing.T) {
	profile := hashedProfile(t, "asha@example.com", "secret-password")
	store := &mockAuthStore{
		getByEmailFn: func(ctx context.Context, email string) (database.Profile, error) {
			if email != "asha@example.com" {
				t.Errorf("email: got %q", email)
			}
			return profile, nil
		},
	}
	router := authRouter(store)

	rr := doRawJSONRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "secret-password",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)

	// The issued access token must round-trip through our validator
	claims, err := auth.ValidateToken(testJWTSecret, resp["access_token"].(string))
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != profile.ID {
		t.Errorf("token user_id: got %v, want %v", claims.UserID, profile.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	profile := hashedProfile(t, "asha@example.com", "secret-password")
	store := &mockAuthStore{
		getByEmailFn: func(ctx context.Context, email string) (database.Profile, error) {
			return profile, nil
		},
	}
	router := authRouter(store)

	rr := doRawJSONRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := authRouter(&mockAuthStore{})

	rr := doRawJSONRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "secret-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	profile := hashedProfile(t, "asha@example.com", "secret-password")
	store := &mockAuthStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			if id != profile.ID {
				t.Errorf("looked up wrong user: %v", id)
			}
			return profile, nil
		},
	}
	router := authRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, profile.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRawJSONRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["access_token"] == nil {
		t.Error("no new access token issued")
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	profile := hashedProfile(t, "asha@example.com", "secret-password")
	store := &mockAuthStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			return profile, nil
		},
	}
	router := authRouter(store)

	// An access token has no Subject, so the user lookup must fail
	accessToken, err := auth.GenerateToken(testJWTSecret, profile.ID, profile.EmployeeID, false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rr := doRawJSONRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": accessToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	router := authRouter(&mockAuthStore{})

	rr := doRawJSONRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestMe_ReturnsProfile(t *testing.T) {
	profile := hashedProfile(t, "asha@example.com", "secret-password")
	store := &mockAuthStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.Profile, error) {
			return profile, nil
		},
	}
	router := authRouter(store)

	claims := &auth.Claims{UserID: profile.ID, EmployeeID: profile.EmployeeID}
	rr := doAuthRequest(t, router, "GET", "/auth/me", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["email"] != "asha@example.com" {
		t.Errorf("email: got %v", resp["email"])
	}
}

func TestMe_RequiresToken(t *testing.T) {
	router := authRouter(&mockAuthStore{})

	req, _ := http.NewRequest("GET", "/auth/me", nil)
	rr := doRawRequest(router, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
