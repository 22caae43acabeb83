package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Joseda-hg/taskboard/internal/auth"
	"github.com/Joseda-hg/taskboard/internal/config"
	"github.com/Joseda-hg/taskboard/internal/store"
	"github.com/Joseda-hg/taskboard/internal/task"
	"github.com/Joseda-hg/taskboard/internal/tui"
	"github.com/Joseda-hg/taskboard/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	authURLFlag := flag.String("auth-url", "", "user directory base URL")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	loginFlag := flag.Bool("login", false, "log in and exit")
	signupFlag := flag.Bool("signup", false, "create an account and exit")
	logoutFlag := flag.Bool("logout", false, "log out and exit")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "taskboard.db")
	}
	if *authURLFlag != "" {
		cfg.AuthURL = *authURLFlag
	}
	if *webFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	dir := auth.NewDirectory(cfg.AuthURL)
	credsPath := config.CredentialsPath(cfgPath)

	switch {
	case *loginFlag:
		if err := runLogin(ctx, dir, credsPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case *signupFlag:
		if err := runSignup(ctx, dir); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case *logoutFlag:
		if err := runLogout(ctx, dir, credsPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	creds, err := auth.LoadCredentials(credsPath)
	if err != nil {
		log.Fatal(err)
	}

	session := auth.NewContext(dir, creds)
	if err := session.Validate(ctx); err != nil {
		log.Printf("session validation failed: %v", err)
	}
	if !session.IsAuthenticated() {
		if err := auth.PurgeCredentials(credsPath); err != nil {
			log.Printf("purge credentials: %v", err)
		}
		fmt.Fprintln(os.Stderr, "please login (run with -login)")
		os.Exit(1)
	}

	repo, err := openRepository(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(repo, session).Handler()
		if *webOnlyFlag {
			log.Printf("Web server running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			log.Printf("Web server running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.Printf("web server error: %v", err)
			}
		}()
	}

	if *webOnlyFlag {
		return
	}

	user := session.User()
	name := user.Name
	if name == "" {
		name = user.Username
	}
	if err := tui.Run(repo, session.CurrentUserID(), name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func openRepository(ctx context.Context, dbPath string) (*task.Repository, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	sqlDB, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return task.NewRepository(store.NewStore(sqlDB)), nil
}

func runLogin(ctx context.Context, dir *auth.Directory, credsPath string) error {
	usernameOrEmail, err := promptLine("Username or email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	creds, user, err := auth.Login(ctx, dir, usernameOrEmail, password)
	if err != nil {
		return err
	}
	if err := auth.SaveCredentials(credsPath, creds); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", user.Username)
	return nil
}

func runSignup(ctx context.Context, dir *auth.Directory) error {
	var input auth.SignupInput
	var err error

	if input.Name, err = promptLine("Name: "); err != nil {
		return err
	}
	if input.Username, err = promptLine("Username: "); err != nil {
		return err
	}
	if input.Email, err = promptLine("Email: "); err != nil {
		return err
	}
	if input.ContactNumber, err = promptLine("Contact number: "); err != nil {
		return err
	}
	if input.Password, err = promptPassword("Password: "); err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if confirm != input.Password {
		return fmt.Errorf("passwords do not match")
	}

	user, err := auth.Signup(ctx, dir, input)
	if err != nil {
		return err
	}

	fmt.Printf("Account created for %s, run with -login to sign in\n", user.Username)
	return nil
}

func runLogout(ctx context.Context, dir *auth.Directory, credsPath string) error {
	creds, err := auth.LoadCredentials(credsPath)
	if err != nil {
		return err
	}

	if err := auth.Logout(ctx, dir, creds); err != nil {
		log.Printf("delete session: %v", err)
	}
	if err := auth.PurgeCredentials(credsPath); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
