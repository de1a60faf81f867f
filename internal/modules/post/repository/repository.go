package repository

import (
	"context"

	"anoa.com/blogapp/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uint) (*entity.Post, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.Post, error)
	FindByUserID(ctx context.Context, userID uint) ([]*entity.Post, error)
	FindByCategoryID(ctx context.Context, categoryID uint) ([]*entity.Post, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*entity.Post, error)
	CountComments(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	Update(ctx context.Context, post *entity.Post, categories []entity.Category) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name") })
}

// Create inserts the post and links its categories, which must exist.
func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := post.Categories
		post.Categories = nil
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			if err := tx.Model(post).Association("Categories").Append(categories); err != nil {
				return err
			}
		}
		post.Categories = categories
		return nil
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*entity.Post, error) {
	var post entity.Post
	if err := r.preloaded(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindAll returns posts newest first. A zero limit returns every post.
func (r *postRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.Post, error) {
	var posts []*entity.Post
	query := r.preloaded(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	err := query.Find(&posts).Error
	return posts, err
}

func (r *postRepository) FindByUserID(ctx context.Context, userID uint) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := r.preloaded(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) FindByCategoryID(ctx context.Context, categoryID uint) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := r.preloaded(ctx).
		Where("id IN (?)", r.db.Table("post_categories").Select("post_id").Where("category_id = ?", categoryID)).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	return posts, err
}

// FindByIDs keeps the order of ids and skips ids that no longer exist.
func (r *postRepository) FindByIDs(ctx context.Context, ids []uint) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return []*entity.Post{}, nil
	}

	var found []*entity.Post
	if err := r.preloaded(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]*entity.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]*entity.Post, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (r *postRepository) CountComments(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post, categories []entity.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		assoc := tx.Model(post).Association("Categories")
		if len(categories) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(categories); err != nil {
			return err
		}
		post.Categories = categories
		return nil
	})
}

// Delete removes the post with its comments, notifications and category
// links.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&entity.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_categories WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Post{}, id).Error
	})
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
