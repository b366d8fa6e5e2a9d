package parser

import (
	"testing"

	"github.com/aluiziolira/go-fetch-episodes/models"
)

func TestValidateEpisode(t *testing.T) {
	tests := []struct {
		name    string
		episode *models.Episode
		wantErr bool
	}{
		{
			name: "valid episode",
			episode: &models.Episode{
				Title: "Hardcore History 70",
				URL:   "http://example.test/?download_file=70",
			},
			wantErr: false,
		},
		{
			name: "missing title",
			episode: &models.Episode{
				Title: "   ",
				URL:   "http://example.test/?download_file=70",
			},
			wantErr: true,
		},
		{
			name: "missing url",
			episode: &models.Episode{
				Title: "Hardcore History 70",
				URL:   "",
			},
			wantErr: true,
		},
		{
			name: "relative url",
			episode: &models.Episode{
				Title: "Hardcore History 70",
				URL:   "/downloads/70",
			},
			wantErr: true,
		},
		{
			name:    "nil episode",
			episode: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEpisode(tt.episode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEpisode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hardcore History 70  ", "Hardcore History 70"},
		{"Hardcore\n\t History   70", "Hardcore History 70"},
		{"", ""},
		{"Single", "Single"},
	}

	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
