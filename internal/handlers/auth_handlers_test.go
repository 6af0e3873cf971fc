package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/t2s-commerce/shop-api/internal/hash"
	"github.com/t2s-commerce/shop-api/internal/models"
	"github.com/t2s-commerce/shop-api/internal/mykafka"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Product{}, &models.Order{}))
	return db
}

func doJSON(e *echo.Echo, method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func newAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		DB:            db,
		JWTSecret:     []byte("test_jwt_secret"),
		RefreshSecret: []byte("test_refresh_secret"),
		Producer:      &mykafka.Producer{},
	}
}

func TestRegister(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(db)
	e := echo.New()

	payload := map[string]string{"username": "test_user", "password": "password"}

	rec, c := doJSON(e, http.MethodPost, "/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "test_user", user.Username)
	require.Equal(t, "user", user.Role)
	require.NotEmpty(t, user.ID)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotEqual(t, "password", stored.PasswordHash)

	_, cDup := doJSON(e, http.MethodPost, "/register", payload)
	err := h.Register(cDup)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestLogin(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(db)
	e := echo.New()

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Username: "test_user", PasswordHash: passwordHash, Role: "user"}).Error)

	rec, c := doJSON(e, http.MethodPost, "/login", map[string]string{"username": "test_user", "password": "password"})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	_, cBad := doJSON(e, http.MethodPost, "/login", map[string]string{"username": "test_user", "password": "wrong"})
	err = h.Login(cBad)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefresh(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(db)
	e := echo.New()

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Username: "test_user", PasswordHash: passwordHash, Role: "user"}).Error)

	recLogin, cLogin := doJSON(e, http.MethodPost, "/login", map[string]string{"username": "test_user", "password": "password"})
	require.NoError(t, h.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &loginResp))
	oldRefresh := loginResp["refresh_token"]
	require.NotEmpty(t, oldRefresh)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: oldRefresh})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	require.NotEqual(t, oldRefresh, resp["refresh_token"])

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", oldRefresh).First(&stored).Error)
	require.True(t, stored.Revoked, "rotated refresh token must be revoked")

	// a rotated-out token cannot be redeemed again
	reqReuse := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	reqReuse.AddCookie(&http.Cookie{Name: "refreshToken", Value: oldRefresh})
	recReuse := httptest.NewRecorder()
	cReuse := e.NewContext(reqReuse, recReuse)

	errReuse := h.Refresh(cReuse)
	he, ok := errReuse.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(db)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "not-a-real-token"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Refresh(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogOut(t *testing.T) {
	db := initTestDB(t)
	h := newAuthHandler(db)
	e := echo.New()

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Username: "test_user", PasswordHash: passwordHash, Role: "user"}).Error)

	recLogin, cLogin := doJSON(e, http.MethodPost, "/login", map[string]string{"username": "test_user", "password": "password"})
	require.NoError(t, h.Login(cLogin))
	require.Equal(t, http.StatusOK, recLogin.Code)

	var loginResp map[string]string
	require.NoError(t, json.Unmarshal(recLogin.Body.Bytes(), &loginResp))
	refreshToken := loginResp["refresh_token"]
	require.NotEmpty(t, refreshToken)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.LogOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, db.Where("token = ?", refreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}
