package gcs

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/scans/2024/inv.jpg", "bucket", "scans/2024/inv.jpg", false},
		{"gs://bucket/inv.txt", "bucket", "inv.txt", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"s3://bucket/x", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestFilenameFromURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/file.jpg": "file.jpg",
		"gs://bucket/file.png":        "file.png",
		"gs://bucket":                 "bucket",
	}
	for uri, want := range tests {
		if got := FilenameFromURI(uri); got != want {
			t.Errorf("FilenameFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestURIAndTextURI(t *testing.T) {
	uri := URI("bucket", "scans/a.jpg")
	if uri != "gs://bucket/scans/a.jpg" {
		t.Fatalf("URI = %q", uri)
	}
	if got := TextURI(uri); got != "gs://bucket/scans/a.jpg.txt" {
		t.Errorf("TextURI = %q", got)
	}
}
