package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/format"
)

func adminGet(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, adminAddr+path, nil)
	if err != nil {
		return err
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %s", path, resp.Status, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// RunRoomsList prints every public, non-empty room known to the relay
// at adminAddr.
func RunRoomsList() error {
	var rooms []domain.RoomSummary
	if err := adminGet("/rooms", &rooms); err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println("No public rooms.")
		return nil
	}

	fmt.Printf("Rooms (%d):\n", len(rooms))
	fmt.Println("Code          CreatedBy       Members  Password")
	fmt.Println("──────────────────────────────────────────────────")
	for _, r := range rooms {
		hasPw := " "
		if r.HasPassword {
			hasPw = "✓"
		}
		fmt.Printf("%-13s %-15s %-8d %s\n", r.Code, r.CreatedBy, r.MemberCount, hasPw)
	}
	return nil
}

// RunRoomsInspect prints one room's full snapshot.
func RunRoomsInspect(code string) error {
	var info domain.RoomInfo
	if err := adminGet("/rooms/"+code, &info); err != nil {
		return fmt.Errorf("failed to inspect room %s: %w", code, err)
	}

	fmt.Printf("Room: %s\n", info.Code)
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("Created by:   %s\n", info.CreatedBy)
	fmt.Printf("Public:       %v\n", info.IsPublic)
	fmt.Printf("Has password: %v\n", info.HasPassword)
	fmt.Printf("Members:      %d\n", len(info.Members))
	fmt.Printf("Locks:        %d\n", len(info.Locks))
	fmt.Printf("Timeline:     %d events\n", len(info.Timeline))
	fmt.Printf("Last activity: %s\n", format.Age(format.FromUnixMillis(info.LastActivity), time.Now()))

	for _, m := range info.Members {
		fmt.Printf("  - %s (%s), last seen %s\n", m.Name, m.DeviceID, format.Age(format.FromUnixMillis(m.LastSeen), time.Now()))
	}
	return nil
}
