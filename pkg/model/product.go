package model

import "time"

type Product struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID     string    `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=120"`
	Description string    `json:"description" bson:"description" validate:"required,min=1,max=2000"`
	Images      []string  `json:"images" bson:"images" validate:"max=20,dive,url"`
	Address     string    `json:"address" bson:"address" validate:"required,min=2,max=300"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ProductInput is the lender-supplied part of a new product.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=120"`
	Description string   `json:"description" validate:"required,min=1,max=2000"`
	Images      []string `json:"images" validate:"max=20,dive,url"`
	Address     string   `json:"address" validate:"required,min=2,max=300"`
}

type ProductUpdate struct {
	Name        *string   `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Description *string   `json:"description,omitempty" validate:"omitnil,min=1,max=2000"`
	Images      *[]string `json:"images,omitempty" validate:"omitnil,max=20,dive,url"`
	Address     *string   `json:"address,omitempty" validate:"omitnil,min=2,max=300"`
}

type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Address     string   `json:"address"`
}

type ProductDetails struct {
	*Product
	Owner *UserSummary `json:"owner,omitempty"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		Address:     p.Address,
	}
}

// IsEmpty reports whether the update changes nothing.
func (u *ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Images == nil && u.Address == nil
}
