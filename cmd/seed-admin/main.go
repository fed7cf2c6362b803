// seed-admin creates or updates the reconciliation console admin user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/recon_backend/config"
	"bitbucket.org/mmdatafocus/recon_backend/models"
	"bitbucket.org/mmdatafocus/recon_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "reconAdmin"
	adminName     = "Recon Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	var biz models.Business
	if err := db.WithContext(ctx).Model(&models.Business{}).Select("id").First(&biz).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fmt.Fprintln(os.Stderr, "no businesses found in DB. Create a business first, then rerun seed-admin.")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "failed to lookup business: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", adminUsername).First(&existing).Error
	if err == nil {
		hashed, hashErr := utils.HashPassword(password)
		if hashErr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", hashErr)
			os.Exit(1)
		}
		updateErr := db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"password":  string(hashed),
				"is_active": true,
				"role":      models.UserRoleAdmin,
			}).Error
		if updateErr != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", updateErr)
			os.Exit(1)
		}
		fmt.Println("admin user updated:", adminUsername)
		return
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup admin user: %v\n", err)
		os.Exit(1)
	}

	user, err := models.CreateUser(ctx, &models.NewUser{
		BusinessId: biz.ID,
		Username:   adminUsername,
		Name:       adminName,
		Password:   password,
		Role:       models.UserRoleAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("admin user created:", user.Username)
}
