package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dom/habit-proofs/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "listen":
		listenCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Habit Simulator - Development tool for exercising proofs and live updates

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Sign in two users, share a habit, submit a proof and verify it
  populate  Sign in fake users and join them to an existing habit
  listen    Open a realtime connection for a user and print every event
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend base URL (default: http://localhost:8080)

The server must run with ENVIRONMENT=development so that /auth/dev-login
is available.

EXAMPLES:
  # Run the complete create/join/proof/verify flow
  simulator full

  # Reject instead of verify
  simulator full --action=reject

  # Add 5 members to a habit
  simulator populate --habit=<habit id> --count=5

  # Watch events for a user while using the app
  simulator listen --name=Alice`)
}

type listener struct {
	conn   *gorillaWS.Conn
	events chan *websocket.Message
}

// connect opens a realtime connection and registers it for the token's user
func connect(client *APIClient, token string) (*listener, error) {
	conn, _, err := gorillaWS.DefaultDialer.Dial(client.WebSocketURL(token), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	l := &listener{conn: conn, events: make(chan *websocket.Message, 16)}
	go func() {
		defer close(l.events)
		for {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			l.events <- &msg
		}
	}()

	register, _ := websocket.NewMessage(websocket.MessageTypeRegister, websocket.RegisterPayload{})
	if err := conn.WriteJSON(register); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register: %w", err)
	}
	if _, err := l.await(websocket.MessageTypeRegistered, 5*time.Second); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *listener) await(msgType websocket.MessageType, timeout time.Duration) (*websocket.Message, error) {
	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-l.events:
			if !ok {
				return nil, fmt.Errorf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg, nil
			}
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for %s", msgType)
		}
	}
}

func (l *listener) Close() {
	l.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
	l.conn.Close()
}

func fail(format string, args ...interface{}) {
	fmt.Printf("FAILED\n  Error: "+format+"\n", args...)
	os.Exit(1)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	action := fs.String("action", "verify", "Vote to cast on the proof (verify or reject)")
	title := fs.String("title", "Daily push-ups", "Title of the habit to create")
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	suffix := time.Now().UnixNano() % 100000

	fmt.Println("=== Habit Simulator: Full Flow ===")
	fmt.Println()

	fmt.Print("Signing in creator... ")
	creator, creatorToken, err := client.SignIn(fmt.Sprintf("Creator_%d", suffix))
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (user: %s)\n", creator.DisplayName)

	fmt.Print("Signing in member... ")
	member, memberToken, err := client.SignIn(fmt.Sprintf("Member_%d", suffix))
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (user: %s)\n", member.DisplayName)

	fmt.Print("Creating habit... ")
	habit, err := client.CreateHabit(creatorToken, *title, "created by the simulator")
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (%s)\n", habit.ID)

	fmt.Print("Joining habit... ")
	habit, err = client.JoinHabit(memberToken, habit.ID)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (%d members)\n", len(habit.Members))

	fmt.Print("Connecting realtime channels... ")
	creatorWS, err := connect(client, creatorToken)
	if err != nil {
		fail("%v", err)
	}
	defer creatorWS.Close()
	memberWS, err := connect(client, memberToken)
	if err != nil {
		fail("%v", err)
	}
	defer memberWS.Close()
	fmt.Println("OK")

	fmt.Print("Submitting proof as member... ")
	proof, err := client.SubmitProof(memberToken, habit.ID, "proof.txt", "text/plain", []byte("did it at "+time.Now().Format(time.RFC3339)))
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (%s, %s)\n", proof.ID, proof.MediaURL)

	fmt.Print("Waiting for new-proof on creator channel... ")
	if _, err := creatorWS.await(websocket.MessageTypeNewProof, 5*time.Second); err != nil {
		fail("%v", err)
	}
	fmt.Println("OK")

	fmt.Printf("Casting %s as creator... ", *action)
	proof, err = client.Vote(creatorToken, proof.ID, *action)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK (verified: %d, rejected: %d)\n", len(proof.VerifiedBy), len(proof.RejectedBy))

	fmt.Print("Waiting for proof-verified on member channel... ")
	msg, err := memberWS.await(websocket.MessageTypeProofVerified, 5*time.Second)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("OK %s\n", string(msg.Payload))

	fmt.Println()
	fmt.Println("=== Flow complete ===")
	fmt.Printf("Habit: %s\n", habit.ID)
	fmt.Printf("Proof: %s\n", proof.ID)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	habitID := fs.String("habit", "", "Habit ID to join (required)")
	count := fs.Int("count", 3, "Number of fake users to add")
	fs.Parse(args)

	if *habitID == "" {
		fmt.Println("Error: --habit is required")
		os.Exit(1)
	}
	if *count < 1 {
		fmt.Println("Error: --count must be positive")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	suffix := time.Now().UnixNano() % 100000

	fmt.Printf("Adding %d members to habit %s:\n", *count, *habitID)
	for i := 1; i <= *count; i++ {
		user, token, err := client.SignIn(fmt.Sprintf("Member%d_%d", i, suffix))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to sign in: %v\n", i, *count, err)
			os.Exit(1)
		}

		habit, err := client.JoinHabit(token, *habitID)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i, *count, err)
			os.Exit(1)
		}
		fmt.Printf("  [%d/%d] %s joined (%d members)\n", i, *count, user.DisplayName, len(habit.Members))
	}
}

func listenCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	name := fs.String("name", "", "Display name to sign in as (required)")
	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: --name is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	user, token, err := client.SignIn(*name)
	if err != nil {
		fmt.Printf("Failed to sign in: %v\n", err)
		os.Exit(1)
	}

	l, err := connect(client, token)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer l.Close()

	fmt.Printf("Listening as %s (%s). Press Ctrl+C to stop.\n", user.DisplayName, user.ID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	for {
		select {
		case msg, ok := <-l.events:
			if !ok {
				fmt.Println("Connection closed by server")
				return
			}
			var pretty interface{}
			json.Unmarshal(msg.Payload, &pretty)
			out, _ := json.MarshalIndent(pretty, "  ", "  ")
			fmt.Printf("[%s] %s\n  %s\n", time.UnixMilli(msg.Timestamp).Format(time.TimeOnly), msg.Type, out)
		case <-quit:
			return
		}
	}
}
