package pet

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("pet not found")

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusPending  Status = "Pending"
	StatusAdopted  Status = "Adopted"
)

type Pet struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Breed       string    `json:"breed"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	ImageURL    *string   `json:"imageUrl"` // nil until the first upload
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PetForm is the multipart payload shared by create and update.
// Updates are a full replace, so both use the same fields.
type PetForm struct {
	Name        string `form:"name" binding:"required"`
	Age         int    `form:"age"`
	Breed       string `form:"breed"`
	Description string `form:"description"`
	Status      string `form:"status" binding:"required"`
}

func NewFromForm(form PetForm, imageURL string) Pet {
	now := time.Now().UTC()

	p := Pet{
		Name:        form.Name,
		Age:         form.Age,
		Breed:       form.Breed,
		Description: form.Description,
		Status:      Status(form.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if imageURL != "" {
		p.ImageURL = &imageURL
	}

	return p
}

// ApplyForm overwrites every mutable field. The image URL is only replaced
// when a new one is given.
func (p Pet) ApplyForm(form PetForm, newImageURL string) Pet {
	p.Name = form.Name
	p.Age = form.Age
	p.Breed = form.Breed
	p.Description = form.Description
	p.Status = Status(form.Status)
	p.UpdatedAt = time.Now().UTC()

	if newImageURL != "" {
		p.ImageURL = &newImageURL
	}

	return p
}
