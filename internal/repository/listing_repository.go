package repository

import (
	"github.com/pendo-cea/rag-pipeline/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db}
}

func (r *ListingRepository) CreateListing(listing *model.JobListing) error {
	return r.db.Create(listing).Error
}

func (r *ListingRepository) UpdateListing(listing *model.JobListing) error {
	return r.db.Save(listing).Error
}

// ActiveListings returns the corpus the resume matcher scores against.
func (r *ListingRepository) ActiveListings() ([]model.JobListing, error) {
	var listings []model.JobListing
	err := r.db.Where("active = ?", true).Order("created_at DESC").Find(&listings).Error
	return listings, err
}

// SearchListings ranks listings by cosine distance to the query embedding.
func (r *ListingRepository) SearchListings(embedding pgvector.Vector, topK int) ([]model.JobListing, error) {
	var listings []model.JobListing
	err := r.db.Raw(`
        SELECT * FROM job_listings
        WHERE active = true
        ORDER BY embedding <=> ?
        LIMIT ?
    `, embedding, topK).Scan(&listings).Error
	return listings, err
}
