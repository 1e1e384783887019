package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/term-dates/internal/calendar"
	"github.com/pfrederiksen/term-dates/internal/term/termtest"
)

func main() {
	year := time.Now().Year()

	// Generate .ics file from sample data
	icsContent := calendar.GenerateYearICS(year, termtest.SampleYear(year), time.Now())

	// Write to file (owner read/write only for security)
	filename := fmt.Sprintf("test-term-dates-%d.ics", year)
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
