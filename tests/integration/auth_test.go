package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calixoAPI/handlers"
	"calixoAPI/internal/user"
	"calixoAPI/middleware"
	"calixoAPI/services"
	"calixoAPI/tests/helpers"
)

func TestGetMe_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createdUser, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testauth@example.com",
		Username: "testauth",
		ImageURL: "https://example.com/image.jpg",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.GetMe(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, createdUser.ID, response.ID)
	assert.Equal(t, clerkID, response.ClerkID)
	assert.Equal(t, "testauth@example.com", response.Email)
	assert.Equal(t, "testauth", response.Username)
	assert.Equal(t, 0, response.Coins)
}

func TestGetMe_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	userHandler := handlers.NewUserHandler(userService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()

	userHandler.GetMe(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var response map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response["error"], "not authenticated")
}

func TestUpdateProfile_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testupdate@example.com",
		Username: "testupdate",
	})
	require.NoError(t, err)

	updateData := `{"username": "newusername", "imageUrl": "https://example.com/new.jpg"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update-profile", strings.NewReader(updateData))
	req.Header.Set("Content-Type", "application/json")

	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.UpdateProfile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var response user.User
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "newusername", response.Username)
	assert.Equal(t, "https://example.com/new.jpg", response.ImageURL)
}

func TestDeleteAccount_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	notificationService := services.NewNotificationService(pool)
	defer notificationService.Stop()
	userService := services.NewUserService(pool, notificationService)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testdelete@example.com",
		Username: "testdelete",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	ctx = context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	userHandler.DeleteAccount(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(ctx, clerkID)
	assert.Error(t, err, "User should be deleted")
}
