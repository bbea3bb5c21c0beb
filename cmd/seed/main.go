package main

import (
	"errors"
	"fmt"
	"os"

	"notifyhub/internal/model"
	"notifyhub/pkg/config"
	"notifyhub/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds (or re-seeds) the platform admin account. Admins are never created
// through the API; this command is the only way in.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		fmt.Fprintln(os.Stderr, "Missing ADMIN_EMAIL in environment")
		os.Exit(1)
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "Missing ADMIN_PASSWORD in environment")
		os.Exit(1)
	}

	if err := database.InitDB(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	db := database.GetDB()

	var admin model.AdminUser
	result := db.Where("email = ?", email).First(&admin)
	switch {
	case result.Error == nil:
		// Admin exists, rotate the password hash
		if err := db.Model(&admin).Update("password_hash", string(hashed)).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update admin: %v\n", err)
			os.Exit(1)
		}
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		admin = model.AdminUser{
			Email:        email,
			PasswordHash: string(hashed),
			Role:         model.RolePlatformAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create admin: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Failed to query admin: %v\n", result.Error)
		os.Exit(1)
	}

	fmt.Printf("Admin seeded/updated: %s\n", email)
}
