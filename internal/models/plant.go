package models

import "time"

// Plant is one tracked plant and its photographic growth record.
type Plant struct {
	ID        string       `json:"id" bson:"_id"`
	Name      string       `json:"name" bson:"name"`
	Images    []ImageEntry `json:"images" bson:"images"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
}

// ImageEntry is a single timestamped image reference of a plant.
type ImageEntry struct {
	ImageURL   string    `json:"imageUrl" bson:"imageUrl"`
	UploadDate time.Time `json:"uploadDate" bson:"uploadDate"`
}

// LatestImage returns the most recently appended image, if any.
func (p Plant) LatestImage() (ImageEntry, bool) {
	if len(p.Images) == 0 {
		return ImageEntry{}, false
	}
	return p.Images[len(p.Images)-1], true
}

// Clone returns a deep copy so callers can't mutate stored image slices.
func (p Plant) Clone() Plant {
	out := p
	out.Images = append([]ImageEntry(nil), p.Images...)
	return out
}

// CreatePlantRequest is the body of POST /api/plants (JSON or multipart form).
type CreatePlantRequest struct {
	Name     string `json:"name" form:"name"`
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}

// AppendImageRequest is the body of PUT /api/plants/:id/images.
type AppendImageRequest struct {
	ImageURL string `json:"imageUrl" form:"imageUrl"`
}
