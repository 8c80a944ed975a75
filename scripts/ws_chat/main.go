// Command ws_chat is a terminal client for manual testing: it logs in over
// the REST API, attaches the token to the websocket handshake, prints
// presence updates and deliveries, and sends lines typed as "<userId> <text>".
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/wavechat/wavechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:4000", "server base URL")
	user := flag.String("user", "", "username")
	pass := flag.String("pass", "", "password")
	register := flag.Bool("register", false, "register instead of login")
	flag.Parse()

	if *user == "" || *pass == "" {
		return fmt.Errorf("both -user and -pass are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	token, err := authenticate(ctx, *server, *user, *pass, *register)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*server, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	go func() {
		for {
			var frame map[string]json.RawMessage
			if err := wsjson.Read(ctx, conn, &frame); err != nil {
				cancel()
				return
			}
			printFrame(frame)
		}
	}()

	fmt.Println("connected; type: <userId> <text>")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		recipient, text, ok := strings.Cut(line, " ")
		if !ok {
			fmt.Println("usage: <userId> <text>")
			continue
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Recipient: recipient, Text: text}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	return scanner.Err()
}

func authenticate(ctx context.Context, server, user, pass string, register bool) (string, error) {
	endpoint := server + "/api/login"
	if register {
		endpoint = server + "/api/register"
	}

	body, err := json.Marshal(map[string]string{"username": user, "password": pass})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("auth failed: %s", resp.Status)
	}

	var auth struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}

	fmt.Printf("authenticated as %s (id %s)\n", user, auth.ID)
	return auth.Token, nil
}

func printFrame(frame map[string]json.RawMessage) {
	if raw, ok := frame["online"]; ok {
		var online []proto.OnlineEntry
		if err := json.Unmarshal(raw, &online); err == nil {
			names := make([]string, 0, len(online))
			for _, e := range online {
				names = append(names, fmt.Sprintf("%s(%s)", e.Username, e.UserID))
			}
			fmt.Printf("online: %s\n", strings.Join(names, ", "))
		}
		return
	}
	if raw, ok := frame["error"]; ok {
		var e proto.Error
		if err := json.Unmarshal(raw, &e); err == nil {
			fmt.Printf("error: %s: %s\n", e.Code, e.Msg)
		}
		return
	}
	if _, ok := frame["text"]; ok {
		var d proto.Delivery
		full, _ := json.Marshal(frame)
		if err := json.Unmarshal(full, &d); err == nil {
			fmt.Printf("[%s -> %s] %s\n", d.Sender, d.Recipient, d.Text)
		}
	}
}
