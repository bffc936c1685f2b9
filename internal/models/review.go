// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rated write-up attached to a campground. Besides living in
// the campground's reviews reference list it carries a back-reference to
// its parent so the rating aggregate can be recomputed from the reviews
// collection alone.
type Review struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Rating     int           `bson:"rating" json:"rating"`
	Text       string        `bson:"text" json:"text"`
	Author     Author        `bson:"author" json:"author"`
	Campground bson.ObjectID `bson:"campground" json:"campground"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updated_at"`
}
