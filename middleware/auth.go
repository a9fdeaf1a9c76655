package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"backend_firerms/config"
)

// AuthMiddleware проверяет аутентификацию пользователя. Выдача токенов —
// обязанность внешнего сервиса аутентификации: здесь токен только
// разбирается, а личность пользователя кладется в контекст для аудита.
type AuthMiddleware struct{}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware() *AuthMiddleware {
	return &AuthMiddleware{}
}

// Claims структура JWT токена
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth middleware для проверки аутентификации
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Получаем токен из заголовка
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			authHeader = c.GetHeader("authorization")
		}

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authorization header is required",
			})
			c.Abort()
			return
		}

		// Извлекаем токен из заголовка
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if strings.HasPrefix(authHeader, "Token ") {
			token = strings.TrimPrefix(authHeader, "Token ")
		} else {
			token = authHeader
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid authorization format",
			})
			c.Abort()
			return
		}

		claims, err := am.parseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Недействительный токен: " + err.Error(),
			})
			c.Abort()
			return
		}

		// Сохраняем личность пользователя для аудита перемещений
		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Username)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// RequireRole middleware для проверки роли пользователя
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("user_role")
		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"status": "error",
			"error":  "Недостаточно прав для выполнения операции",
		})
		c.Abort()
	}
}

// parseToken разбирает и валидирует JWT токен
func (am *AuthMiddleware) parseToken(tokenString string) (*Claims, error) {
	cfg := config.GetConfig()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}

// CurrentUserID возвращает идентификатор пользователя из контекста
func CurrentUserID(c *gin.Context) *uint {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(uint); ok && id != 0 {
			return &id
		}
	}
	return nil
}

// CurrentUserName возвращает имя пользователя из контекста
func CurrentUserName(c *gin.Context) string {
	return c.GetString("user_name")
}
