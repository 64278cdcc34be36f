package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/cash-advance-management/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"audit_logs", "payments", "cash_advances", "employees", "users"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Username string
			Email    string
			Role     string
		}{
			{"admin", "admin@mail.com", user.RoleAdmin},
			{"siti", "siti@mail.com", user.RoleSupervisor},
			{"budi", "budi@mail.com", user.RoleEmployee},
		}

		userIDs := map[string]string{}
		for _, u := range seedUsers {
			var id string
			err := db.QueryRow("SELECT id FROM users WHERE username = $1", u.Username).Scan(&id)
			if err == nil {
				fmt.Printf("user %s already exists\n", u.Username)
				userIDs[u.Username] = id
				continue
			}

			id = uuid.NewString()
			if _, err := db.Exec(
				"INSERT INTO users (id, username, email, password_hash, role, access_level, is_active, created_at) VALUES ($1, $2, $3, $4, $5, 1, true, now())",
				id, u.Username, u.Email, string(hash), u.Role); err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Username, err)
			}
			userIDs[u.Username] = id
			fmt.Printf("Seeded user %s (%s)\n", u.Username, u.Role)
		}

		// supervisor first so the report row can reference it
		sitiEmployeeID := seedEmployee(db, userIDs["siti"], "Siti", "Rahma", "Finance", "Finance Manager", 25000000, nil)
		seedEmployee(db, userIDs["budi"], "Budi", "Santoso", "Finance", "Accountant", 12000000, &sitiEmployeeID)

		fmt.Println("Seeding complete. Default password for all users: password")
	},
}

func seedEmployee(db *sqlx.DB, userID, firstName, lastName, department, position string, salaryIDR int64, supervisorID *string) string {
	var id string
	err := db.QueryRow("SELECT id FROM employees WHERE user_id = $1", userID).Scan(&id)
	if err == nil {
		fmt.Printf("employee for user %s already exists\n", userID)
		return id
	}

	id = uuid.NewString()
	if _, err := db.Exec(
		"INSERT INTO employees (id, user_id, first_name, last_name, department, position, hire_date, salary_idr, supervisor_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, now(), $7, $8, now(), now())",
		id, userID, firstName, lastName, department, position, salaryIDR, supervisorID); err != nil {
		log.Fatalf("failed to insert employee %s %s: %v", firstName, lastName, err)
	}
	fmt.Printf("Seeded employee %s %s (%s)\n", firstName, lastName, position)
	return id
}
