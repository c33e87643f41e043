package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-appointment-auth/config"
)

const envTemplate = `# web front-end
NEXT_PUBLIC_FIREBASE_API_KEY=your_api_key_here
NEXT_PUBLIC_FIREBASE_AUTH_DOMAIN=your_project.firebaseapp.com
NEXT_PUBLIC_FIREBASE_PROJECT_ID=your_project_id
NEXT_PUBLIC_FIREBASE_STORAGE_BUCKET=your_project.appspot.com
NEXT_PUBLIC_FIREBASE_MESSAGING_SENDER_ID=your_messaging_sender_id
NEXT_PUBLIC_FIREBASE_APP_ID=your_app_id

# server (FIREBASE_* falls back to the NEXT_PUBLIC_* names above)
FIREBASE_CREDENTIALS_JSON=/path/to/service-account.json
PROFILE_STORE=firestore
REDIS_ADDR=localhost:6379
JWT_ACCESS_SECRET=change_me
JWT_REFRESH_SECRET=change_me_too
CORS_ALLOWED_ORIGINS=http://localhost:3000`

var envFiles = []string{".env", ".env.local"}

func main() {
	fmt.Println("Firebase Setup Helper")
	fmt.Println("=====================")
	fmt.Println()

	fmt.Println("1. Create a Firebase project:")
	fmt.Println("   - Go to https://console.firebase.google.com/")
	fmt.Println("   - Create a new project or select an existing one")
	fmt.Println("   - Enable Google in Authentication > Sign-in method")
	fmt.Println()
	fmt.Println("2. Get the web configuration:")
	fmt.Println("   - Project Settings > Your apps > Web (</>)")
	fmt.Println("   - Register the app and copy the config values")
	fmt.Println()
	fmt.Println("3. Create a service account key for the server:")
	fmt.Println("   - Project Settings > Service accounts > Generate new private key")
	fmt.Println("   - Or rely on Application Default Credentials (gcloud auth application-default login)")
	fmt.Println()
	fmt.Println("4. Create .env.local in the project root with:")
	fmt.Println()
	fmt.Println(indent(envTemplate, "   "))
	fmt.Println()
	fmt.Println("5. Test:")
	fmt.Println("   go run ./cmd            # API on :8080")
	fmt.Println("   go run ./cmd/seed       # sample appointments")
	fmt.Println()

	found := false
	for _, name := range envFiles {
		if _, err := os.Stat(name); err == nil {
			fmt.Printf("[ok]   %s found\n", name)
			found = true
		} else {
			fmt.Printf("[warn] %s not found\n", name)
		}
	}
	if found {
		// Load never overrides variables already set in the shell
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load()
	}

	cfg := config.Load()
	if missing := cfg.MissingFirebaseVars(); len(missing) > 0 {
		fmt.Println("[warn] missing Firebase variables:")
		for _, name := range missing {
			fmt.Printf("       %s\n", name)
		}
	} else {
		fmt.Println("[ok]   Firebase configuration complete")
	}
	if cfg.FirebaseCredentialsJSON == "" {
		fmt.Println("[info] FIREBASE_CREDENTIALS_JSON unset; Application Default Credentials will be used")
	}

	if b, err := os.ReadFile("go.mod"); err == nil {
		if strings.Contains(string(b), "firebase.google.com/go/v4") {
			fmt.Println("[ok]   Firebase Admin SDK dependency found")
		} else {
			fmt.Println("[warn] Firebase Admin SDK missing; run: go get firebase.google.com/go/v4")
		}
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
