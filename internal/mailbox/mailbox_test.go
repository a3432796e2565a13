package mailbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/config"
)

func TestAttachmentAllowed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		types   []string
		maxSize int64
		want    bool
	}{
		{"no filters allows everything", "report.pdf", 1024, nil, 0, true},
		{"matching extension", "report.pdf", 1024, []string{".pdf"}, 0, true},
		{"extension without dot still matches", "report.pdf", 1024, []string{"pdf"}, 0, true},
		{"case-insensitive extension", "REPORT.PDF", 1024, []string{".pdf"}, 0, true},
		{"non-matching extension", "notes.txt", 1024, []string{".pdf", ".docx"}, 0, false},
		{"over size limit", "report.pdf", 2048, nil, 1024, false},
		{"exactly at size limit", "report.pdf", 1024, nil, 1024, true},
		{"size limit trumps type match", "report.pdf", 2048, []string{".pdf"}, 1024, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attachmentAllowed(tt.file, tt.size, tt.types, tt.maxSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubjectMatches(t *testing.T) {
	assert.True(t, subjectMatches("Weekly invoice attached", ""))
	assert.True(t, subjectMatches("Weekly INVOICE attached", "invoice"))
	assert.True(t, subjectMatches("invoice", "Invoice"))
	assert.False(t, subjectMatches("Weekly report", "invoice"))
}

func TestAddressString(t *testing.T) {
	// Given an envelope From with one address
	addrs := []*imap.Address{
		{MailboxName: "billing", HostName: "acme.example"},
	}

	assert.Equal(t, "billing@acme.example", addressString(addrs))
	assert.Equal(t, "", addressString(nil))
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	// Given an empty directory, the plain name is used
	first := uniquePath(dir, "invoice.pdf")
	assert.Equal(t, filepath.Join(dir, "invoice.pdf"), first)

	// When the plain name is taken, a numbered variant is chosen
	require.NoError(t, os.WriteFile(first, []byte("a"), 0o644))
	second := uniquePath(dir, "invoice.pdf")
	assert.Equal(t, filepath.Join(dir, "invoice_1.pdf"), second)

	require.NoError(t, os.WriteFile(second, []byte("b"), 0o644))
	third := uniquePath(dir, "invoice.pdf")
	assert.Equal(t, filepath.Join(dir, "invoice_2.pdf"), third)
}

// fakeSearcher records the criteria it was asked to run and returns a
// canned UID list per call.
type fakeSearcher struct {
	criteria []*imap.SearchCriteria
	results  [][]uint32
}

func (f *fakeSearcher) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	f.criteria = append(f.criteria, criteria)
	idx := len(f.criteria) - 1
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, nil
}

func TestSearchUIDsWithoutSenders(t *testing.T) {
	// Given a fetcher with no sender filter
	cfg := config.MailboxConfig{
		Fetch: config.FetchConfig{DaysBack: 7},
	}
	fetcher := NewFetcher(cfg, nil)
	searcher := &fakeSearcher{results: [][]uint32{{1, 2, 3}}}

	// When searching
	uids, err := fetcher.searchUIDs(searcher)

	// Then a single criteria with a Since bound is issued
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, uids)
	require.Len(t, searcher.criteria, 1)
	since := searcher.criteria[0].Since
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), since, time.Minute)
}

func TestSearchUIDsUnionsSenders(t *testing.T) {
	// Given two configured senders whose results overlap
	cfg := config.MailboxConfig{
		Fetch: config.FetchConfig{
			Senders: []string{"a@example.com", "b@example.com"},
		},
	}
	fetcher := NewFetcher(cfg, nil)
	searcher := &fakeSearcher{results: [][]uint32{{1, 2}, {2, 3}}}

	// When searching
	uids, err := fetcher.searchUIDs(searcher)

	// Then one search per sender runs and the UIDs are deduplicated
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, uids)
	require.Len(t, searcher.criteria, 2)
	assert.Equal(t, []string{"a@example.com"}, searcher.criteria[0].Header.Values("From"))
	assert.Equal(t, []string{"b@example.com"}, searcher.criteria[1].Header.Values("From"))
}

func TestBuildReply(t *testing.T) {
	msg := BuildReply("me@example.com", "them@example.com",
		"Need the Q3 numbers", "Can you send them over?\nThanks.", "The Watchpost Team")

	assert.Equal(t, "me@example.com", msg.From)
	assert.Equal(t, []string{"them@example.com"}, msg.To)
	assert.Equal(t, "Re: Need the Q3 numbers", msg.Subject)
	assert.Contains(t, msg.Body, "automated acknowledgment")
	assert.Contains(t, msg.Body, "The Watchpost Team")
	assert.Contains(t, msg.Body, "--- Original Message ---")
	assert.Contains(t, msg.Body, "> Can you send them over?")
	assert.Contains(t, msg.Body, "> Thanks.")
}

func TestBuildReplyKeepsExistingPrefix(t *testing.T) {
	msg := BuildReply("me@example.com", "them@example.com", "RE: status", "", "")

	assert.Equal(t, "RE: status", msg.Subject)
	assert.NotContains(t, msg.Body, "--- Original Message ---")
}
