package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.csv", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateMatchFlags(t *testing.T) {
	tmpDir := t.TempDir()
	profilesPath := filepath.Join(tmpDir, "profiles.csv")
	contactsPath := filepath.Join(tmpDir, "contacts.csv")

	if err := os.WriteFile(profilesPath, []byte("id,display_name\nP1,Ivan Petrov"), 0644); err != nil {
		t.Fatalf("failed to create profiles file: %v", err)
	}
	if err := os.WriteFile(contactsPath, []byte("external_id,display_name\nc-1,Ivan Petrov"), 0644); err != nil {
		t.Fatalf("failed to create contacts file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("profiles", profilesPath)
				viper.Set("contacts", contactsPath)
				viper.Set("output-format", "console")
			},
			expectError: false,
		},
		{
			name: "missing profiles file",
			setupFlags: func() {
				viper.Set("profiles", "")
				viper.Set("contacts", contactsPath)
				viper.Set("output-format", "console")
			},
			expectError:   true,
			errorContains: "profile snapshot file",
		},
		{
			name: "missing contacts file",
			setupFlags: func() {
				viper.Set("profiles", profilesPath)
				viper.Set("contacts", "")
				viper.Set("output-format", "console")
			},
			expectError:   true,
			errorContains: "contact batch file",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("profiles", profilesPath)
				viper.Set("contacts", contactsPath)
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "unsupported report format",
		},
		{
			name: "output directory does not exist",
			setupFlags: func() {
				viper.Set("profiles", profilesPath)
				viper.Set("contacts", contactsPath)
				viper.Set("output-format", "json")
				viper.Set("output-file", "/non/existent/dir/report.json")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateMatchFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestValidateMergeFlags(t *testing.T) {
	tmpDir := t.TempDir()
	cardsPath := filepath.Join(tmpDir, "cards.csv")
	if err := os.WriteFile(cardsPath, []byte("profile_id,last4,brand\nP1,1234,visa"), 0644); err != nil {
		t.Fatalf("failed to create cards file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("profile-id", "P1")
				viper.Set("cards", cardsPath)
				viper.Set("settled", "settled.csv")
				viper.Set("merge-output-format", "console")
			},
			expectError: false,
		},
		{
			name: "missing profile id",
			setupFlags: func() {
				viper.Set("profile-id", "")
				viper.Set("settled", "settled.csv")
				viper.Set("merge-output-format", "console")
			},
			expectError:   true,
			errorContains: "profile-id is required",
		},
		{
			name: "no evidence sources",
			setupFlags: func() {
				viper.Set("profile-id", "P1")
				viper.Set("merge-output-format", "console")
			},
			expectError:   true,
			errorContains: "at least one of --settled or --queue",
		},
		{
			name: "negative limit",
			setupFlags: func() {
				viper.Set("profile-id", "P1")
				viper.Set("settled", "settled.csv")
				viper.Set("limit", -5)
				viper.Set("merge-output-format", "console")
			},
			expectError:   true,
			errorContains: "limit cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateMergeFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestMatchCommandHelp(t *testing.T) {
	cmd := matchCmd

	for _, flagName := range []string{"profiles", "contacts", "output-format", "output-file", "strict-fuzzy", "no-fuzzy-review"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("%s flag not found", flagName)
		}
	}

	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	cmd.Help()

	helpText := helpOutput.String()
	for _, section := range []string{"Usage:", "Examples:", "Flags:", "--profiles", "--contacts", "--output-format"} {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestMergeCommandHelp(t *testing.T) {
	cmd := mergeCmd

	for _, flagName := range []string{"profile-id", "cards", "settled", "queue", "limit", "require-complete"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("%s flag not found", flagName)
		}
	}
}
