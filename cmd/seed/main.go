package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-appointment-auth/config"
	"github.com/oksasatya/go-appointment-auth/internal/application"
	fbinfra "github.com/oksasatya/go-appointment-auth/internal/infrastructure/firebase"
	fsinfra "github.com/oksasatya/go-appointment-auth/internal/infrastructure/firestore"
	"github.com/oksasatya/go-appointment-auth/pkg/helpers"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.SeedListUsers {
		listUsers(ctx, cfg)
		return
	}

	client, err := fsinfra.NewClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
	if err != nil {
		log.Fatalf("failed to init firestore: %v", err)
	}
	defer func() { _ = client.Close() }()

	fmt.Println("Seeding the appointments collection...")
	records := application.WithUserID(application.SampleAppointments(), cfg.SeedUserID)
	seeder := application.NewAppointmentSeeder(fsinfra.NewAppointmentRepository(client), logger)
	report := seeder.Seed(ctx, records)

	for _, id := range report.Created {
		fmt.Printf("created %s\n", id)
	}
	for _, f := range report.Failures {
		fmt.Printf("failed  #%d %s: %v\n", f.Index, f.Doctor, f.Err)
	}
	fmt.Printf("\n%d of %d appointments created in %q\n", len(report.Created), report.Total(), fsinfra.AppointmentsCollection)

	fmt.Println("\nNext steps:")
	fmt.Println("1. Open the Firebase console, Firestore Database")
	fmt.Printf("2. Check the %q collection for the new documents\n", fsinfra.AppointmentsCollection)
	if cfg.SeedUserID == "" {
		fmt.Println("3. The records use placeholder user ids. List real ones with SEED_LIST_USERS=true")
		fmt.Println("4. Run again with SEED_USER_ID=<uid> to seed appointments for a real user")
	}
}

func listUsers(ctx context.Context, cfg *config.Config) {
	app, err := fbinfra.NewApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON)
	if err != nil {
		log.Fatalf("failed to init firebase: %v", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("failed to init firebase auth: %v", err)
	}
	users, err := fbinfra.ListUsers(ctx, authClient, 100)
	if err != nil {
		log.Fatalf("failed to list users: %v", err)
	}
	if len(users) == 0 {
		fmt.Println("no users yet; sign in once through the app first")
		return
	}
	fmt.Printf("%-32s  %s\n", "UID", "EMAIL")
	for _, u := range users {
		fmt.Printf("%-32s  %s\n", u.UID, u.Email)
	}
	fmt.Println("\nRun again with SEED_USER_ID=<uid> to seed appointments for that user")
}
