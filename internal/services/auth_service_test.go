package services_test

import (
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestRegisterUser_HashesPasswordAndForcesCustomerRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())

	userRepo.On("GetByUsername", "alice").Return(nil, errors.New("record not found"))
	userRepo.On("GetByEmail", "alice@example.com").Return(nil, errors.New("record not found"))
	userRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		if u.Role != models.RoleCustomer {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")) == nil
	})).Return(nil)

	user := &models.User{Username: "alice", Email: "alice@example.com", Password: "s3cret", Role: models.RoleAdmin}
	err := svc.RegisterUser(user)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	userRepo.AssertExpectations(t)
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())

	userRepo.On("GetByUsername", "alice").Return(&models.User{ID: "user-1", Username: "alice"}, nil)

	err := svc.RegisterUser(&models.User{Username: "alice", Email: "alice@example.com", Password: "s3cret"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already")
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestLoginUser_ReturnsTokenWithRoleClaim(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())

	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	userRepo.On("GetByUsername", "alice").Return(&models.User{
		ID: "user-1", Username: "alice", Password: string(hashed), Role: models.RoleCustomer,
	}, nil)

	token, err := svc.LoginUser("alice", "s3cret")

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, string(models.RoleCustomer), claims["role"])
}

func TestLoginUser_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	userRepo.On("GetByUsername", "alice").Return(&models.User{
		ID: "user-1", Username: "alice", Password: string(hashed),
	}, nil)

	token, err := svc.LoginUser("alice", "wrong")

	assert.Empty(t, token)
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginUser_UnknownUsernameIsIndistinguishable(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())

	userRepo.On("GetByUsername", "ghost").Return(nil, errors.New("record not found"))

	token, err := svc.LoginUser("ghost", "whatever")

	assert.Empty(t, token)
	assert.EqualError(t, err, "invalid credentials")
}

func TestValidateToken_RejectsTamperedToken(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := services.NewAuthService(userRepo, testSecret, zap.NewNop())
	other := services.NewAuthService(userRepo, "different-secret", zap.NewNop())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	userRepo.On("GetByUsername", "alice").Return(&models.User{
		ID: "user-1", Username: "alice", Password: string(hashed),
	}, nil)

	token, err := other.LoginUser("alice", "s3cret")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}
