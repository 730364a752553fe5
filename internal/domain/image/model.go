// Package image defines the gallery's aggregate root: an uploaded image with
// its owner, its set of likes, and its embedded comments.
package image

import "time"

// Comment is owned by its parent image and destroyed with it. Username is a
// snapshot taken when the comment was written; a later rename does not update
// past comments.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image is the aggregate root. UploadedBy is set at creation and never
// reassigned. Likes holds account IDs, each at most once. PublicID is the
// media host's deletable handle for the stored binary.
type Image struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	PublicID      string    `json:"publicId"`
	UploadedBy    string    `json:"uploadedBy"`
	OwnerUsername string    `json:"ownerUsername,omitempty"`
	Likes         []string  `json:"likes"`
	Comments      []Comment `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LikedBy reports whether the account already likes the image.
func (img Image) LikedBy(userID string) bool {
	for _, id := range img.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
