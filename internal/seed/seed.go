// Package seed fills a document store with demo members, articles, comments
// and favorites for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"heartbridge/internal/auth"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/repository"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Heartbridge1"

// Options configures a seeding run.
type Options struct {
	Parents            int
	Teens              int
	ArticlesPerUser    int
	CommentsPerArticle int
	FavoritesPerUser   int
	MaxLikes           int
	MaxDays            int
	RandSeed           int64
	// DryRun builds everything but writes nothing.
	DryRun bool
}

// Presets are the named seeding sizes accepted by cmd/seed.
var Presets = map[string]Options{
	"small":  {Parents: 2, Teens: 2, ArticlesPerUser: 2, CommentsPerArticle: 2, FavoritesPerUser: 1, MaxLikes: 5, MaxDays: 14},
	"demo":   {Parents: 8, Teens: 8, ArticlesPerUser: 3, CommentsPerArticle: 4, FavoritesPerUser: 3, MaxLikes: 30, MaxDays: 60},
	"stress": {Parents: 100, Teens: 100, ArticlesPerUser: 10, CommentsPerArticle: 15, FavoritesPerUser: 10, MaxLikes: 500, MaxDays: 365},
}

// Preset returns the named options.
func Preset(name string) (Options, error) {
	opts, ok := Presets[strings.ToLower(name)]
	if !ok {
		return Options{}, fmt.Errorf("unknown preset %q", name)
	}
	return opts, nil
}

// Result summarizes what a run created.
type Result struct {
	Users     []models.User
	Articles  []models.Article
	Comments  int
	Favorites int
}

// Seeder writes factory output through the repositories so seeded data has
// the same shape as data created by the API.
type Seeder struct {
	store     docstore.Store
	backend   auth.Backend
	users     repository.UserRepository
	articles  repository.ArticleRepository
	comments  repository.CommentRepository
	favorites repository.FavoriteRepository
	factory   *Factory
	opts      Options
}

// NewSeeder creates a seeder over store. Accounts are created through
// backend so seeded members can sign in.
func NewSeeder(store docstore.Store, backend auth.Backend, opts Options) *Seeder {
	randSeed := opts.RandSeed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	return &Seeder{
		store:     store,
		backend:   backend,
		users:     repository.NewUserRepository(store),
		articles:  repository.NewArticleRepository(store),
		comments:  repository.NewCommentRepository(store),
		favorites: repository.NewFavoriteRepository(store),
		factory:   NewFactory(randSeed, opts.MaxDays, time.Now()),
		opts:      opts,
	}
}

// Run seeds members, then their articles, comments, likes and favorites.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	log.Printf("🌱 Seeding %d parents and %d teens...", s.opts.Parents, s.opts.Teens)

	users, err := s.SeedUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("✓ %d members created", len(users))

	articles, err := s.SeedArticles(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed articles: %w", err)
	}
	log.Printf("✓ %d articles created", len(articles))

	comments, err := s.SeedComments(ctx, users, articles)
	if err != nil {
		return nil, fmt.Errorf("failed to seed comments: %w", err)
	}
	log.Printf("✓ %d comments created", comments)

	favorites, err := s.SeedFavorites(ctx, users, articles)
	if err != nil {
		return nil, fmt.Errorf("failed to seed favorites: %w", err)
	}
	log.Printf("✓ %d favorites created", favorites)

	log.Println("🎉 Seeding completed successfully!")
	return &Result{Users: users, Articles: articles, Comments: comments, Favorites: favorites}, nil
}

// SeedUsers creates an account and a completed profile per member. An
// account that already exists is signed into instead, so reruns are safe.
func (s *Seeder) SeedUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, s.opts.Parents+s.opts.Teens)
	add := func(role models.Role, n int) error {
		email := Email(role, n)
		uid := auth.LocalUID(email)
		if !s.opts.DryRun {
			id, err := s.account(ctx, email)
			if err != nil {
				return err
			}
			uid = id.UID
		}
		user := s.factory.BuildUser(uid, email, role)
		if !s.opts.DryRun {
			if err := s.users.Save(ctx, user); err != nil {
				return err
			}
		}
		users = append(users, *user)
		return nil
	}

	for i := 1; i <= s.opts.Parents; i++ {
		if err := add(models.RoleParent, i); err != nil {
			return users, err
		}
	}
	for i := 1; i <= s.opts.Teens; i++ {
		if err := add(models.RoleTeen, i); err != nil {
			return users, err
		}
	}
	return users, nil
}

func (s *Seeder) account(ctx context.Context, email string) (*auth.Identity, error) {
	id, err := s.backend.CreateAccount(ctx, email, DefaultPassword)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, auth.ErrEmailInUse) {
		return nil, err
	}
	return s.backend.SignInWithPassword(ctx, email, DefaultPassword)
}

// SeedArticles creates ArticlesPerUser articles per member with random likes.
func (s *Seeder) SeedArticles(ctx context.Context, users []models.User) ([]models.Article, error) {
	articles := make([]models.Article, 0, len(users)*s.opts.ArticlesPerUser)
	for i := range users {
		for j := 0; j < s.opts.ArticlesPerUser; j++ {
			article := s.factory.BuildArticle(&users[i])
			if s.opts.MaxLikes > 0 {
				article.Likes = int64(s.factory.faker.Number(0, s.opts.MaxLikes))
			}
			if s.opts.DryRun {
				article.ID = fmt.Sprintf("dry-run-%d", len(articles)+1)
			} else {
				id, err := s.articles.Create(ctx, article)
				if err != nil {
					return articles, err
				}
				article.ID = id
			}
			articles = append(articles, *article)
		}
	}
	return articles, nil
}

// SeedComments adds CommentsPerArticle replies from random members to each
// article and keeps the comment counters in step.
func (s *Seeder) SeedComments(ctx context.Context, users []models.User, articles []models.Article) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	total := 0
	for i := range articles {
		for j := 0; j < s.opts.CommentsPerArticle; j++ {
			author := &users[s.factory.faker.Number(0, len(users)-1)]
			comment := s.factory.BuildComment(&articles[i], author)
			if s.opts.MaxLikes > 0 {
				comment.Likes = int64(s.factory.faker.Number(0, s.opts.MaxLikes/5))
			}
			if !s.opts.DryRun {
				if _, err := s.comments.Create(ctx, comment); err != nil {
					return total, err
				}
				if err := s.articles.IncrementCommentCount(ctx, articles[i].ID, 1); err != nil {
					return total, err
				}
			}
			articles[i].CommentCount++
			total++
		}
	}
	return total, nil
}

// SeedFavorites bookmarks up to FavoritesPerUser articles written by other
// members.
func (s *Seeder) SeedFavorites(ctx context.Context, users []models.User, articles []models.Article) (int, error) {
	total := 0
	for i := range users {
		added := 0
		order := make([]int, len(articles))
		for k := range order {
			order[k] = k
		}
		s.factory.faker.ShuffleInts(order)
		for _, k := range order {
			if added >= s.opts.FavoritesPerUser {
				break
			}
			if articles[k].AuthorID == users[i].UID {
				continue
			}
			if !s.opts.DryRun {
				if _, err := s.favorites.Add(ctx, users[i].UID, articles[k].ID, s.factory.timeAfter(articles[k].CreatedAt)); err != nil {
					return total, err
				}
			}
			added++
			total++
		}
	}
	return total, nil
}

// seededCollections are cleared by ClearAll, children first.
var seededCollections = []string{
	models.CollectionFavorites,
	models.CollectionComments,
	models.CollectionArticles,
	models.CollectionUsers,
	models.CollectionCredentials,
}

// ClearAll deletes every document in the collections the seeder writes.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	for _, collection := range seededCollections {
		docs, err := s.store.Query(ctx, docstore.Query{Collection: collection})
		if err != nil {
			return fmt.Errorf("list %s: %w", collection, err)
		}
		for _, doc := range docs {
			if err := s.store.Delete(ctx, collection, doc.ID); err != nil {
				return fmt.Errorf("delete %s/%s: %w", collection, doc.ID, err)
			}
		}
		log.Printf("✓ cleared %d %s", len(docs), collection)
	}
	return nil
}
