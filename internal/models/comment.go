// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment is free text attached to a campground. It is owned by exactly
// one campground through the campground's comments reference list.
type Comment struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Text      string        `bson:"text" json:"text"`
	Author    Author        `bson:"author" json:"author"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}
