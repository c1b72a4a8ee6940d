package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ahmed-mouatassim/saleflow/config"
	"github.com/ahmed-mouatassim/saleflow/models"
	"github.com/ahmed-mouatassim/saleflow/utils"
)

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type UserCreateInput struct {
	Username string  `json:"username" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user"`
}

type UserUpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user"`
	IsActive *bool   `json:"is_active"`
}

func Login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("username = ? AND is_active = ?", in.Username, true).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.ServerError(c, "auth", "Login", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		utils.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		utils.ServerError(c, "auth", "Login", err)
		return
	}

	now := time.Now()
	if err := config.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		utils.ServerError(c, "auth", "Login", err)
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

func Me(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var user models.User
	if err := config.DB.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(c, "auth", "Me", err)
		return
	}
	utils.Success(c, "User retrieved", user)
}

func ChangePassword(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var in ChangePasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, uid).Error; err != nil {
		utils.ServerError(c, "auth", "ChangePassword", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)) != nil {
		utils.Error(c, http.StatusUnauthorized, "Old password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.ServerError(c, "auth", "ChangePassword", err)
		return
	}
	if err := config.DB.Model(&user).
		Update("password_hash", string(hash)).Error; err != nil {
		utils.ServerError(c, "auth", "ChangePassword", err)
		return
	}
	utils.Success(c, "Password changed", nil)
}

func GetUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		utils.ServerError(c, "auth", "GetUsers", err)
		return
	}
	utils.Success(c, "Users retrieved", users)
}

func CreateUser(c *gin.Context) {
	var in UserCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.ServerError(c, "auth", "CreateUser", err)
		return
	}

	role := models.RoleUser
	if in.Role != nil {
		role = *in.Role
	}
	user := models.User{
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.Error(c, http.StatusConflict, "Username already taken")
			return
		}
		utils.ServerError(c, "auth", "CreateUser", err)
		return
	}
	utils.Success(c, "User created", user)
}

func UpdateUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var in UserUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(c, http.StatusNotFound, "User not found")
			return
		}
		utils.ServerError(c, "auth", "UpdateUser", err)
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Role != nil {
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.ServerError(c, "auth", "UpdateUser", err)
			return
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", user)
		return
	}

	if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
		utils.ServerError(c, "auth", "UpdateUser", err)
		return
	}

	var updated models.User
	if err := config.DB.First(&updated, id).Error; err != nil {
		utils.ServerError(c, "auth", "UpdateUser", err)
		return
	}
	utils.Success(c, "User updated", updated)
}

func DeleteUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	res := config.DB.Model(&models.User{}).
		Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.ServerError(c, "auth", "DeleteUser", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(c, http.StatusNotFound, "User not found")
		return
	}
	utils.Success(c, "User deleted", nil)
}
