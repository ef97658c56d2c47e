package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// DriveClient handles uploading meeting notes to Google Drive and fetching
// shared recordings from it
type DriveClient struct {
	service    *drive.Service
	folderName string
	folderID   string

	attempts int
	backoff  func(attempt int) time.Duration
}

// NewDriveClient creates a new Google Drive client. Without a cached token
// the OAuth consent URL is printed and the code is read from stdin.
func NewDriveClient(ctx context.Context, credentialsFile, tokenFile, folderName string) (*DriveClient, error) {
	// Read credentials
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(ctx, config, tokenFile)
	if err != nil {
		return nil, err
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}

	dc := &DriveClient{
		service:    srv,
		folderName: folderName,
		attempts:   3,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}

	// Find or create the root folder
	if err := dc.ensureFolder(ctx); err != nil {
		return nil, err
	}

	return dc, nil
}

// getClient retrieves a token, saves the token, then returns the generated client
func getClient(ctx context.Context, config *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			log.Printf("WARNING: unable to cache oauth token: %v", err)
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser:\n%v\n", authURL)
	fmt.Print("Enter authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// ensureFolder finds or creates the root folder
func (dc *DriveClient) ensureFolder(ctx context.Context) error {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
		escapeQuery(dc.folderName))

	r, err := dc.service.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to search for folder: %w", err)
	}

	if len(r.Files) > 0 {
		dc.folderID = r.Files[0].Id
		return nil
	}

	// Create folder
	folder := &drive.File{
		Name:     dc.folderName,
		MimeType: "application/vnd.google-apps.folder",
	}

	file, err := dc.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create folder: %w", err)
	}

	dc.folderID = file.Id
	return nil
}

// SaveMeeting uploads the notes and metadata, retrying with backoff, and
// records the notes link on m.
func (dc *DriveClient) SaveMeeting(ctx context.Context, m *types.Meeting) error {
	var err error
	for attempt := 1; attempt <= dc.attempts; attempt++ {
		var url string
		url, err = dc.upload(ctx, m)
		if err == nil {
			m.GDriveURL = url
			return nil
		}
		log.Printf("Meeting %s: Google Drive upload attempt %d/%d failed: %v", m.ID, attempt, dc.attempts, err)
		if attempt == dc.attempts {
			break
		}
		select {
		case <-time.After(dc.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return types.NewError(types.IOError, "gdrive upload",
		fmt.Errorf("failed after %d attempts: %w", dc.attempts, err))
}

func (dc *DriveClient) upload(ctx context.Context, m *types.Meeting) (string, error) {
	// Create dated folder structure: Meeting Notes/2025/01/23/
	now := m.CompletedAt
	if now.IsZero() {
		now = time.Now()
	}
	folderID, err := dc.ensureDateFolder(ctx, now)
	if err != nil {
		return "", err
	}

	timestamp := now.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(m.Name))

	notesFile := &drive.File{
		Name:    baseFilename + ".md",
		Parents: []string{folderID},
	}
	created, err := dc.service.Files.Create(notesFile).
		Media(strings.NewReader(RenderNotes(m))).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload notes: %w", err)
	}

	metadata := map[string]interface{}{
		"meeting_id":       m.ID,
		"name":             m.Name,
		"source":           m.Source,
		"duration_seconds": m.Transcript.Duration(),
		"word_count":       m.WordCount(),
		"language":         m.Transcript.Language,
		"speaker_names":    m.Context.SpeakerNames,
		"summary":          m.Summary,
		"created_at":       m.CreatedAt,
		"completed_at":     m.CompletedAt,
	}
	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", err
	}

	metaFile := &drive.File{
		Name:    baseFilename + "_meta.json",
		Parents: []string{folderID},
	}
	if _, err := dc.service.Files.Create(metaFile).
		Media(bytes.NewReader(metaJSON)).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to upload metadata: %w", err)
	}

	// Return shareable link
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id), nil
}

// Download fetches a Drive file the authenticated user can read into w.
func (dc *DriveClient) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	resp, err := dc.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return 0, types.NewError(types.IOError, "gdrive download", err)
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, types.NewError(types.IOError, "gdrive download", err)
	}
	return n, nil
}

// ensureDateFolder creates nested year/month/day folders
func (dc *DriveClient) ensureDateFolder(ctx context.Context, t time.Time) (string, error) {
	yearID, err := dc.findOrCreateFolder(ctx, fmt.Sprintf("%d", t.Year()), dc.folderID)
	if err != nil {
		return "", err
	}

	monthID, err := dc.findOrCreateFolder(ctx, fmt.Sprintf("%02d", t.Month()), yearID)
	if err != nil {
		return "", err
	}

	return dc.findOrCreateFolder(ctx, fmt.Sprintf("%02d", t.Day()), monthID)
}

// findOrCreateFolder finds or creates a folder with the given parent
func (dc *DriveClient) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='application/vnd.google-apps.folder' and trashed=false",
		escapeQuery(name), parentID)

	r, err := dc.service.Files.List().Q(query).Spaces("drive").Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", err
	}

	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{parentID},
	}

	file, err := dc.service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}

	return file.Id, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

var (
	fileIDPath  = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	fileIDParam = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	fileIDBare  = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// ExtractFileID extracts the file ID from the usual Google Drive URL forms
func ExtractFileID(url string) string {
	// https://drive.google.com/file/d/{ID}/view
	if matches := fileIDPath.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	// https://drive.google.com/open?id={ID}
	if matches := fileIDParam.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	// Direct ID
	if matches := fileIDBare.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// DownloadPublic fetches a link-shared Drive file without credentials.
func DownloadPublic(ctx context.Context, client *http.Client, fileID string, w io.Writer) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, types.NewError(types.IOError, "gdrive download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, types.Errorf(types.IOError, "gdrive download",
			"file not accessible (status %d); it may be private or deleted", resp.StatusCode)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, types.NewError(types.IOError, "gdrive download", err)
	}
	return n, nil
}
