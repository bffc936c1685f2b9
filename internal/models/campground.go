// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Author is the denormalized identity embedded in campgrounds, comments
// and reviews. The username is a cached copy taken at creation time and
// can go stale if the user later renames; it is not re-synced on read.
type Author struct {
	ID       bson.ObjectID `bson:"id" json:"id"`
	Username string        `bson:"username" json:"username"`
}

// Campground is the aggregate root of the catalog. Comments and reviews
// are child documents referenced by ID; their lifetime is bounded by the
// campground (deleting it cascades to them).
type Campground struct {
	ID          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string          `bson:"name" json:"name"`
	Slug        string          `bson:"slug" json:"slug"`
	Price       float64         `bson:"price" json:"price"`
	Image       string          `bson:"image" json:"image"`
	ImageID     string          `bson:"image_id,omitempty" json:"image_id,omitempty"`
	Description string          `bson:"description" json:"description"`
	Location    string          `bson:"location" json:"location"`
	Lat         float64         `bson:"lat" json:"lat"`
	Lng         float64         `bson:"lng" json:"lng"`
	Author      Author          `bson:"author" json:"author"`
	Comments    []bson.ObjectID `bson:"comments" json:"comments"`
	Reviews     []bson.ObjectID `bson:"reviews" json:"reviews"`
	Likes       []bson.ObjectID `bson:"likes" json:"likes"`
	Rating      float64         `bson:"rating" json:"rating"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updated_at"`
}

// LikedBy reports whether the given user is in the like set.
func (c *Campground) LikedBy(userID bson.ObjectID) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips the user's membership in the like set and reports the
// resulting state (true when the user now likes the campground).
func (c *Campground) ToggleLike(userID bson.ObjectID) bool {
	for i, id := range c.Likes {
		if id == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return false
		}
	}
	c.Likes = append(c.Likes, userID)
	return true
}
