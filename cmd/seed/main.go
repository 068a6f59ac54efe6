package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	accessdomain "github.com/peer-app/peer-services/api/internal/accessibility/domain"
	mongodoc "github.com/peer-app/peer-services/api/internal/infrastructure/mongo"
	promodomain "github.com/peer-app/peer-services/api/internal/promotion/domain"
)

type seedOptions struct {
	userCount       int
	placeCount      int
	ratingsPerPlace int
	promotedCount   int
	dropCollections bool
	randomSeed      int64
}

func parseFlags() seedOptions {
	opts := seedOptions{}
	flag.IntVar(&opts.userCount, "users", 12, "number of accounts to create")
	flag.IntVar(&opts.placeCount, "places", 20, "number of places to create")
	flag.IntVar(&opts.ratingsPerPlace, "ratings-per-place", 4, "maximum ratings per place")
	flag.IntVar(&opts.promotedCount, "promoted", 3, "number of places to enroll in promotion")
	flag.BoolVar(&opts.dropCollections, "drop", false, "drop existing collections first")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	collections := mongodoc.Collections{
		Ratings:         envOrDefault("RATING_COLLECTION", "ratings"),
		Places:          envOrDefault("PLACE_COLLECTION", "places"),
		PromotionMonths: envOrDefault("PROMOTION_MONTH_COLLECTION", "promotion_months"),
		Users:           envOrDefault("USER_COLLECTION", "users"),
	}
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "peer")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		for _, name := range []string{collections.Ratings, collections.Places, collections.PromotionMonths, collections.Users} {
			if err := db.Collection(name).Drop(ctx); err != nil {
				log.Fatalf("failed to drop collection %s: %v", name, err)
			}
		}
		log.Printf("dropped existing collections")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, collections); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))

	userIDs, err := seedUsers(ctx, db.Collection(collections.Users), rng, opts.userCount)
	if err != nil {
		log.Fatalf("failed to seed users: %v", err)
	}
	log.Printf("seeded %d users", len(userIDs))

	placeIDs := makePlaceIDs(opts.placeCount)
	ratingTotal, err := seedRatings(ctx, db.Collection(collections.Ratings), rng, userIDs, placeIDs, opts.ratingsPerPlace)
	if err != nil {
		log.Fatalf("failed to seed ratings: %v", err)
	}
	log.Printf("seeded %d ratings", ratingTotal)

	if err := seedPlaces(ctx, db, collections, rng, placeIDs, opts.promotedCount); err != nil {
		log.Fatalf("failed to seed places: %v", err)
	}
	log.Printf("seeded %d places (%d promoted)", len(placeIDs), opts.promotedCount)
}

var firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Radia", "Vint", "Katherine", "Linus"}
var lastNames = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Perlman", "Cerf", "Johnson", "Torvalds"}

func seedUsers(ctx context.Context, users *mongo.Collection, rng *rand.Rand, count int) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		doc := mongodoc.UserDocument{
			ID:          primitive.NewObjectID(),
			FirstName:   firstNames[i%len(firstNames)],
			LastName:    lastNames[(i/len(firstNames)+i)%len(lastNames)],
			Email:       fmt.Sprintf("seed-user-%03d@example.com", i+1),
			Hash:        fmt.Sprintf("%016x", rng.Uint64()),
			IsBlindMode: rng.Intn(3) == 0,
		}
		if _, err := users.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, nil
}

func makePlaceIDs(count int) []string {
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, fmt.Sprintf("seed-place-%03d", i+1))
	}
	return ids
}

var comments = []string{
	"Braille menu at the counter, staff walked me through the seating.",
	"Easy to find the entrance, but the signage inside is tiny.",
	"Guide dog was welcome without any fuss.",
	"Large print menu available on request.",
	"",
}

// seedRatings writes up to perPlace ratings per place, each from a
// distinct user, and returns the total count.
func seedRatings(ctx context.Context, ratings *mongo.Collection, rng *rand.Rand, userIDs, placeIDs []string, perPlace int) (int, error) {
	total := 0
	for _, placeID := range placeIDs {
		raterCount := rng.Intn(perPlace + 1)
		if raterCount > len(userIDs) {
			raterCount = len(userIDs)
		}
		for _, raterIndex := range rng.Perm(len(userIDs))[:raterCount] {
			doc := mongodoc.RatingDocument{
				ID:               primitive.NewObjectID(),
				UserID:           userIDs[raterIndex],
				PlaceID:          placeID,
				Braille:          maybeScore(rng),
				FontReadability:  maybeScore(rng),
				StaffHelpfulness: maybeScore(rng),
				Navigability:     maybeScore(rng),
				GuideDogFriendly: maybeAnswer(rng),
				DateCreated:      time.Now().UTC().Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
			}
			if comment := comments[rng.Intn(len(comments))]; comment != "" {
				doc.Comment = &comment
			}
			if _, err := ratings.InsertOne(ctx, doc); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// seedPlaces derives each place's averages from the ratings just written,
// exactly as the service would, and enrolls the first promoted places in
// the current billing period.
func seedPlaces(ctx context.Context, db *mongo.Database, collections mongodoc.Collections, rng *rand.Rand, placeIDs []string, promotedCount int) error {
	ratingRepo := mongodoc.NewRatingRepository(db, collections.Ratings)
	placeRepo := mongodoc.NewPlaceRepository(db, collections.Places)
	monthRepo := mongodoc.NewPromotionMonthRepository(db, collections.PromotionMonths)

	now := time.Now().UTC()
	for i, placeID := range placeIDs {
		if _, err := placeRepo.EnsureByID(ctx, placeID); err != nil {
			return err
		}

		stored, err := ratingRepo.FindByPlace(ctx, placeID)
		if err != nil {
			return err
		}
		if len(stored) > 0 {
			if err := placeRepo.UpdateAverages(ctx, placeID, accessdomain.ComputeAverages(stored)); err != nil {
				return err
			}
		}

		if i >= promotedCount {
			continue
		}
		budget := float64(rng.Intn(20)+5) * 1.0
		bid := float64(rng.Intn(100)+1) / 100.0
		if err := placeRepo.SetSettings(ctx, placeID, promodomain.Settings{MonthlyBudget: budget, MaxCPC: bid}); err != nil {
			return err
		}
		if _, err := monthRepo.GetOrCreate(ctx, placeID, int(now.Month()), now.Year()); err != nil {
			return err
		}
	}
	return nil
}

func maybeScore(rng *rand.Rand) *float64 {
	if rng.Intn(3) == 0 {
		return nil
	}
	value := float64(rng.Intn(9)+2) / 2.0
	return &value
}

func maybeAnswer(rng *rand.Rand) *bool {
	switch rng.Intn(3) {
	case 0:
		return nil
	case 1:
		value := false
		return &value
	}
	value := true
	return &value
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
