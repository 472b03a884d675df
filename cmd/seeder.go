package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
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

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := initGormDB(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"host_payment_details", "host_payments", "app_earnings", "reservations", "host_profiles", "commission_settings", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"admin@mail.com", "Platform Admin", "admin"},
			{"wulan@mail.com", "Wulan Host", "host"},
			{"bayu@mail.com", "Bayu Host", "host"},
			{"sari@mail.com", "Sari Guest", "guest"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists\n", u.Email)
				continue
			}
			if err := db.Exec("INSERT INTO users (email, name, role, created_at, updated_at) VALUES (?, ?, ?, now(), now())", u.Email, u.Name, u.Role).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		var activeSettings int64
		if err := db.Raw("SELECT COUNT(1) FROM commission_settings WHERE is_active = true").Row().Scan(&activeSettings); err != nil {
			log.Fatalf("failed to count commission settings: %v", err)
		}
		if activeSettings == 0 {
			if err := db.Exec("INSERT INTO commission_settings (commission_percentage, is_active, created_at, updated_at) VALUES (15, true, now(), now())").Error; err != nil {
				log.Fatalf("failed to insert commission setting: %v", err)
			}
			fmt.Println("Seeded active commission setting: 15%")
		}

		var wulanID, bayuID, sariID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "wulan@mail.com").Row().Scan(&wulanID); err != nil {
			log.Fatalf("failed to lookup host id: %v", err)
		}
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "bayu@mail.com").Row().Scan(&bayuID); err != nil {
			log.Fatalf("failed to lookup host id: %v", err)
		}
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "sari@mail.com").Row().Scan(&sariID); err != nil {
			log.Fatalf("failed to lookup guest id: %v", err)
		}

		// Bayu negotiated a reduced commission rate
		var profileExists int
		if err := db.Raw("SELECT 1 FROM host_profiles WHERE user_id = ?", bayuID).Row().Scan(&profileExists); err != nil {
			if err := db.Exec("INSERT INTO host_profiles (user_id, commission_rate, created_at, updated_at) VALUES (?, 10, now(), now())", bayuID).Error; err != nil {
				log.Fatalf("failed to insert host profile: %v", err)
			}
			fmt.Println("Seeded host profile with 10% override for bayu")
		}

		var reservationCount int64
		if err := db.Raw("SELECT COUNT(1) FROM reservations").Row().Scan(&reservationCount); err != nil {
			log.Fatalf("failed to count reservations: %v", err)
		}
		if reservationCount == 0 {
			now := time.Now()
			checkIn := now.AddDate(0, 0, 14).Format("2006-01-02")
			checkOut := now.AddDate(0, 0, 17).Format("2006-01-02")

			reservations := []struct {
				PropertyID    int64
				HostID        int64
				Status        string
				PaymentStatus string
				BaseAmount    string
			}{
				{101, wulanID, "confirmed", "paid", "1500000"},
				{101, wulanID, "pending", "pending", "900000"},
				{202, bayuID, "confirmed", "paid", "2400000"},
			}

			for _, r := range reservations {
				if err := db.Exec(`INSERT INTO reservations
					(property_id, guest_id, host_id, check_in, check_out, adults, base_amount, additional_services, total_amount, status, payment_status, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, 2, ?, '[]', ?, ?, ?, now(), now())`,
					r.PropertyID, sariID, r.HostID, checkIn, checkOut, r.BaseAmount, r.BaseAmount, r.Status, r.PaymentStatus).Error; err != nil {
					log.Fatalf("failed to insert reservation: %v", err)
				}
			}
			fmt.Println("Seeded sample reservations")
		}

		fmt.Println("Seeding completed successfully")
	},
}
