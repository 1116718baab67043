package video

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
)

// fingerprint returns the hex md5 of the source string. The id is used as the
// primary key across status, storage and file naming.
func fingerprint(source string) string {
	sum := md5.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}

// IdentifyURL derives the video id for a remote source from the raw URL
// string. The same URL string always maps to the same id, which is what makes
// cache hits possible. Two different URL strings referring to the same video
// map to different ids; that is accepted behavior, not a bug.
func IdentifyURL(rawURL string) string {
	return fingerprint(rawURL)
}

// IdentifyUpload derives the video id for an uploaded file. The filename is
// salted with a random token so repeated uploads of the same filename never
// collide.
func IdentifyUpload(filename string) string {
	return fingerprint(filename + uuid.NewString())
}
