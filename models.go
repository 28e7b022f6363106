package foodrecipe

import (
	"net/http"
)

type ModelList []interface{}

// Models lists every table managed by AutoMigrate.
func Models() ModelList {
	return ModelList{&User{}, &Dish{}, &Rating{}}
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
}

// Dish has no foreign key to users: removing a user leaves their dishes in place.
type Dish struct {
	ID        uint    `gorm:"primaryKey"`
	Title     string  `gorm:"size:255;not null"`
	Recipe    string  `gorm:"type:text"`
	ImagePath *string `gorm:"size:512"`
	Type      string  `gorm:"size:64"`
	AuthorID  uint    `gorm:"not null;index"`
}

func (d Dish) GetID() uint {
	return d.ID
}

func (d Dish) GetAuthorID() uint {
	return d.AuthorID
}

// Rating is unique per (user, dish).
type Rating struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_ratings_user_dish"`
	DishID uint `gorm:"not null;uniqueIndex:idx_ratings_user_dish;index"`
	Rating int  `gorm:"not null;check:chk_ratings_range,rating BETWEEN 1 AND 10"`
}

type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (u *UserView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (u User) ToDTO() *UserView {
	return &UserView{ID: u.ID, Username: u.Username}
}

type RatingView struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// DishView is a dish together with its ratings and their average.
type DishView struct {
	ID             uint         `json:"id"`
	Title          string       `json:"title"`
	Recipe         string       `json:"recipe"`
	ImagePath      *string      `json:"image_path"`
	Type           string       `json:"type"`
	AuthorID       uint         `json:"author_id"`
	AuthorUsername *string      `json:"author_username"`
	Ratings        []RatingView `json:"ratings"`
	AverageRating  *float64     `json:"average_rating"`
}

func (d *DishView) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
