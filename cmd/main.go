package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/artcorner/art-corner-server/cmd/api"
	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		case "clear-db":
			runDatabaseClear()
			return
		case "bootstrap-admin":
			runBootstrapAdmin(os.Args[2:])
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer()
}

func openDB() *gorm.DB {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	return DB
}

func closeDB(DB *gorm.DB) {
	sqlDB, _ := DB.DB()
	sqlDB.Close()
	log.Println("Database connection closed")
}

func runMigrations() {
	DB := openDB()
	defer closeDB(DB)
	log.Println("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func migrationModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserBlock{},
		&models.Product{},
		&models.ProductMedia{},
		&models.Gallery{},
		&models.GalleryCollaborator{},
		&models.GalleryProduct{},
		&models.Event{},
		&models.EventParticipant{},
		&models.Article{},
		&models.Comment{},
		&models.CommentReaction{},
		&models.Message{},
		&models.MessageAttachment{},
		&models.Notification{},
		&models.Device{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.Favorite{},
		&models.FavoriteGallery{},
		&models.FavoriteArticle{},
		&models.AuditLog{},
		&models.Report{},
	}
}

func performMigrations(DB *gorm.DB) error {
	log.Println("Starting database migrations...")
	for _, model := range migrationModels() {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %T: %w", model, err)
		}
		log.Printf("%T migration successful", model)
	}

	directories := []string{
		"uploads/media",
	}
	for _, dir := range directories {
		if err := createDirectoryIfNotExist(dir); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
		log.Printf("Directory %s created/verified", dir)
	}

	log.Println("All migrations and directory setup completed successfully")
	return nil
}

func createDirectoryIfNotExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", path, err)
		}
	}
	return nil
}

// runBootstrapAdmin creates or promotes the platform admin. Signup never
// assigns the admin role; this command is the only way to mint one.
func runBootstrapAdmin(args []string) {
	if len(args) < 1 {
		log.Fatal("Usage: bootstrap-admin <email> [full name]")
	}
	email := args[0]
	fullName := "Administrator"
	if len(args) > 1 {
		fullName = args[1]
	}

	password := os.Getenv("ADMIN_PASSWORD")

	DB := openDB()
	defer closeDB(DB)

	var user models.User
	err := DB.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		user.Role = models.RoleAdmin
		if err := models.SaveUserVersioned(DB, &user); err != nil {
			log.Fatalf("Error promoting user: %v", err)
		}
		log.Printf("User %s promoted to admin", email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		if password == "" {
			log.Fatal("ADMIN_PASSWORD must be set to create a new admin account")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}
		user = models.User{
			FullName:      fullName,
			Email:         email,
			PasswordHash:  string(hash),
			Role:          models.RoleAdmin,
			EmailVerified: true,
		}
		if err := DB.Create(&user).Error; err != nil {
			log.Fatalf("Error creating admin: %v", err)
		}
		log.Printf("Admin %s created", email)
	default:
		log.Fatalf("Error looking up user: %v", err)
	}
}

func startServer() {
	DB := openDB()
	defer closeDB(DB)
	log.Println("Connected to the database")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	server := api.NewApiServer(":"+port, DB)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-quit
	log.Println("Shutting down server...")
}

func runDatabaseClear() {
	DB := openDB()
	defer closeDB(DB)

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	log.Println("Dropping tables...")
	tables := migrationModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := DB.Migrator().DropTable(tables[i]); err != nil {
			log.Printf("Warning dropping table %T: %v", tables[i], err)
		} else {
			log.Printf("Table %T dropped", tables[i])
		}
	}

	log.Println("Database cleared successfully")
}
