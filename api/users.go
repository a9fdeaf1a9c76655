package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backend_firerms/models"
)

// UserAPI представляет API для управления учетными записями
type UserAPI struct {
	DB *gorm.DB
}

// NewUserAPI создает новый экземпляр UserAPI
func NewUserAPI(db *gorm.DB) *UserAPI {
	return &UserAPI{DB: db}
}

// validRoles допустимые роли учетных записей
var validRoles = map[string]bool{
	"user":          true,
	"quartermaster": true,
	"officer":       true,
	"admin":         true,
}

// CreateUser создает учетную запись
func (api *UserAPI) CreateUser(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Role        string `json:"role"`
		PersonnelID *uint  `json:"personnel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	// Проверяем уникальность логина и почты
	var existing models.User
	if err := api.DB.Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Пользователь с таким логином или почтой уже существует"})
		return
	}

	if req.Role == "" {
		req.Role = "user"
	}
	if !validRoles[req.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимая роль"})
		return
	}

	if req.PersonnelID != nil {
		var person models.Personnel
		if err := api.DB.First(&person, *req.PersonnelID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
			return
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при хешировании пароля"})
		return
	}

	user := models.User{
		Username:    req.Username,
		Email:       req.Email,
		Password:    string(hashedPassword),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
		IsActive:    true,
		PersonnelID: req.PersonnelID,
	}

	if err := api.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при создании пользователя: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Пользователь успешно создан",
		"data":    user,
	})
}

// GetUsers возвращает список учетных записей
func (api *UserAPI) GetUsers(c *gin.Context) {
	var users []models.User
	query := api.DB.Model(&models.User{}).Preload("Personnel")

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Order("username ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при получении списка пользователей"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetUser возвращает учетную запись
func (api *UserAPI) GetUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := api.DB.Preload("Personnel").First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// UpdateUser обновляет учетную запись. Пароль меняется отдельным методом.
func (api *UserAPI) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := api.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	var req struct {
		Email       *string `json:"email"`
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Role        *string `json:"role"`
		IsActive    *bool   `json:"is_active"`
		PersonnelID *uint   `json:"personnel_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Role != nil {
		if !validRoles[*req.Role] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимая роль"})
			return
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.PersonnelID != nil {
		var person models.Personnel
		if err := api.DB.First(&person, *req.PersonnelID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Сотрудник не найден"})
			return
		}
		updates["personnel_id"] = *req.PersonnelID
	}

	if len(updates) > 0 {
		if err := api.DB.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при обновлении пользователя: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Пользователь успешно обновлен",
		"data":    user,
	})
}

// ChangePassword меняет пароль учетной записи
func (api *UserAPI) ChangePassword(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := api.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	var req struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при хешировании пароля"})
		return
	}

	if err := api.DB.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при смене пароля: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пароль успешно изменен"})
}

// DeactivateUser отключает учетную запись. Записи не удаляются: на них
// ссылаются карточки выездов и аудит.
func (api *UserAPI) DeactivateUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := api.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	if err := api.DB.Model(&user).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при отключении пользователя: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пользователь отключен"})
}
