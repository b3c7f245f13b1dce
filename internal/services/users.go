package services

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/utils"

	"gorm.io/gorm"
)

const (
	maxNameLen     = 150
	maxEmailLen    = 254
	minPasswordLen = 8
)

type UserInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UserView is the public profile. IsSubscribed is relative to whoever asked.
type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type UserService struct {
	db         *gorm.DB
	bcryptCost int
}

func NewUserService(db *gorm.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost}
}

func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	var v ValidationError
	switch {
	case in.Email == "":
		v.Add("email", "This field is required.")
	case len(in.Email) > maxEmailLen || !utils.ValidEmail(in.Email):
		v.Add("email", "Enter a valid email address.")
	}
	switch {
	case in.Username == "":
		v.Add("username", "This field is required.")
	case len(in.Username) > maxNameLen || !utils.ValidUsername(in.Username):
		v.Add("username", "Enter a valid username. Letters, digits and @/./+/-/_ only.")
	}
	requiredName(&v, "first_name", in.FirstName)
	requiredName(&v, "last_name", in.LastName)
	validatePassword(&v, "password", in.Password)

	conn := s.db.WithContext(ctx)
	if _, bad := v.Fields["email"]; !bad && in.Email != "" {
		taken, err := exists(conn.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(in.Email)))
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("email", "A user with that email already exists.")
		}
	}
	if _, bad := v.Fields["username"]; !bad && in.Username != "" {
		taken, err := exists(conn.Model(&models.User{}).Where("username = ?", in.Username))
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("username", "A user with that username already exists.")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}
	if err := conn.Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("user with this email or username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("user %d not found", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page Page) ([]UserView, int64, error) {
	conn := s.db.WithContext(ctx)
	var total int64
	if err := conn.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []models.User
	if err := conn.Order("username").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	views, err := s.userViews(ctx, users, viewerID)
	return views, total, err
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password give the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, &Error{Kind: ErrBadCredentials, Msg: "Unable to log in with provided credentials."}
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.VerifyPassword(user.Password, password) {
		return nil, &Error{Kind: ErrBadCredentials, Msg: "Unable to log in with provided credentials."}
	}
	return &user, nil
}

func (s *UserService) SetPassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	var v ValidationError
	if !utils.VerifyPassword(user.Password, current) {
		v.Add("current_password", "Invalid password.")
	}
	validatePassword(&v, "new_password", next)
	if err := v.Err(); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(user).Update("password", hash).Error
}

// UserView builds the profile of user as seen by viewerID (0 = anonymous).
func (s *UserService) UserView(ctx context.Context, user *models.User, viewerID uint) (*UserView, error) {
	views, err := s.userViews(ctx, []models.User{*user}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *UserService) userViews(ctx context.Context, users []models.User, viewerID uint) ([]UserView, error) {
	followed, err := subscribedAuthors(s.db.WithContext(ctx), viewerID, userIDs(users))
	if err != nil {
		return nil, err
	}
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = toUserView(u, followed[u.ID])
	}
	return views, nil
}

func toUserView(u models.User, subscribed bool) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

// subscribedAuthors reports which of authorIDs the viewer follows.
func subscribedAuthors(conn *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := conn.Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func requiredName(v *ValidationError, field, value string) {
	switch {
	case value == "":
		v.Add(field, "This field is required.")
	case len([]rune(value)) > maxNameLen:
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLen))
	}
}

func validatePassword(v *ValidationError, field, pw string) {
	switch {
	case pw == "":
		v.Add(field, "This field is required.")
	case len(pw) < minPasswordLen:
		v.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLen))
	case len(pw) > 72:
		v.Add(field, "This password is too long.")
	}
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("count rows: %w", err)
	}
	return n > 0, nil
}
