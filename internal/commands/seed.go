package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

var (
	seedURL       string
	seedCount     int
	seedTenants   []string
	seedFailBurst int
	seedDelay     time.Duration
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo traffic against a running server",
	Long: `Send generated tenant, firewall and network events to the ingest
endpoint, including a burst of failed logins from one IP so the
correlation sweep has something to find.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedURL, "url", "http://localhost:3002", "base URL of the server")
	seedCmd.Flags().IntVar(&seedCount, "count", 50, "number of events to send")
	seedCmd.Flags().StringSliceVar(&seedTenants, "tenants", []string{"acme", "globex", "initech"}, "tenant names to spread events across")
	seedCmd.Flags().IntVar(&seedFailBurst, "fail-burst", 5, "failed logins sent from a single IP (0 disables)")
	seedCmd.Flags().DurationVar(&seedDelay, "delay", 50*time.Millisecond, "pause between events")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	sent := 0
	for i := 0; i < seedCount; i++ {
		var event map[string]any
		switch i % 4 {
		case 0, 1:
			event = fakeTenantEvent()
		case 2:
			event = map[string]any{"log_type": "firewall", "raw": fakeFirewallLine()}
		default:
			event = map[string]any{"log_type": "network", "raw": fakeNetworkLine()}
		}

		if err := postEvent(client, event); err != nil {
			return fmt.Errorf("failed to send event %d: %w", i, err)
		}
		sent++
		time.Sleep(seedDelay)
	}

	if seedFailBurst > 0 {
		attackerIP := gofakeit.IPv4Address()
		tenant := seedTenants[0]
		for i := 0; i < seedFailBurst; i++ {
			event := map[string]any{
				"tenant":   tenant,
				"source":   "webapp",
				"event":    "app_login_failed",
				"message":  "Login failed: invalid password",
				"user":     gofakeit.Username(),
				"ip":       attackerIP,
				"severity": "medium",
			}
			if err := postEvent(client, event); err != nil {
				return fmt.Errorf("failed to send failed-login event: %w", err)
			}
			sent++
			time.Sleep(seedDelay)
		}
		fmt.Printf("sent %d failed logins from %s (tenant %s)\n", seedFailBurst, attackerIP, tenant)
	}

	fmt.Printf("sent %d events to %s/ingest\n", sent, seedURL)
	return nil
}

func fakeTenantEvent() map[string]any {
	events := []string{"user_login", "user_logout", "file_upload", "config_change", "api_request"}
	severities := []string{"low", "info", "medium", "high"}

	return map[string]any{
		"tenant":   gofakeit.RandomString(seedTenants),
		"source":   gofakeit.RandomString([]string{"webapp", "crm", "billing"}),
		"event":    gofakeit.RandomString(events),
		"message":  gofakeit.HackerPhrase(),
		"user":     gofakeit.Username(),
		"ip":       gofakeit.IPv4Address(),
		"severity": gofakeit.RandomString(severities),
	}
}

func fakeFirewallLine() string {
	return fmt.Sprintf("<134>%s %s vendor=%s product=NGFW action=%s src=%s dst=%s spt=%d dpt=%d proto=%s msg=%s policy=POL-%d",
		time.Now().UTC().Format("Jan  2 15:04:05"),
		"fw-"+gofakeit.Word(),
		gofakeit.RandomString([]string{"Fortinet", "PaloAlto", "Cisco"}),
		gofakeit.RandomString([]string{"allow", "deny", "drop"}),
		gofakeit.IPv4Address(),
		gofakeit.IPv4Address(),
		gofakeit.Number(1024, 65535),
		gofakeit.RandomInt([]int{22, 53, 80, 443, 3389}),
		gofakeit.RandomString([]string{"TCP", "UDP"}),
		"traffic decision",
		gofakeit.Number(1, 99))
}

func fakeNetworkLine() string {
	return fmt.Sprintf("<134>%s %s if=%s event=%s mac=%s reason=%s",
		time.Now().UTC().Format("Jan  2 15:04:05"),
		"sw-"+gofakeit.Word(),
		fmt.Sprintf("ge-0/0/%d", gofakeit.Number(0, 48)),
		gofakeit.RandomString([]string{"LinkUp", "LinkDown", "PortFlap"}),
		gofakeit.MacAddress(),
		gofakeit.RandomString([]string{"admin action", "cable unplugged", "stp transition"}))
}

func postEvent(client *http.Client, event map[string]any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	resp, err := client.Post(seedURL+"/ingest", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}
