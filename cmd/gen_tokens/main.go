package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"inkwell-backend/internal/model"
	"inkwell-backend/internal/utils"
)

// This helper reads users from MySQL and seeds login tokens in Redis,
// then writes a token,email CSV for load-testing authenticated endpoints.
//
// Usage:
//
//	go run cmd/gen_tokens/main.go -dsn "user:pass@tcp(127.0.0.1:3306)/inkwell?parseTime=true" -out tokens.csv -redis 127.0.0.1:6379
func main() {
	dsn := flag.String("dsn", "", "mysql DSN for the inkwell database")
	out := flag.String("out", "tokens.csv", "output CSV file")
	redisAddr := flag.String("redis", "127.0.0.1:6379", "redis address")
	redisDB := flag.Int("db", 0, "redis db index")
	limit := flag.Int("limit", 0, "max users to seed, 0 means all")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("mysql DSN is required, use -dsn")
	}

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
		DB:   *redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	db, err := gorm.Open(mysql.Open(*dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}

	query := db.WithContext(ctx).Model(&model.User{}).Order("id")
	if *limit > 0 {
		query = query.Limit(*limit)
	}
	var users []model.User
	if err := query.Find(&users).Error; err != nil {
		log.Fatalf("load users: %v", err)
	}

	outFile, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer outFile.Close()
	writer := csv.NewWriter(outFile)
	defer writer.Flush()

	count := 0
	for i := range users {
		user := &users[i]
		token := uuid.NewString()
		tokenKey := utils.LOGIN_USER_KEY + token
		data := map[string]string{
			"id":         fmt.Sprintf("%d", user.ID),
			"username":   user.Username,
			"fullname":   user.FullName,
			"profileImg": user.ProfileImg,
		}
		if err := rdb.HSet(ctx, tokenKey, data).Err(); err != nil {
			log.Printf("hset user %d: %v", user.ID, err)
			continue
		}
		if err := rdb.Expire(ctx, tokenKey, time.Duration(utils.LOGIN_USER_TTL)*time.Second).Err(); err != nil {
			log.Printf("expire user %d: %v", user.ID, err)
			continue
		}
		if err := writer.Write([]string{token, user.Email}); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		count++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("flush output: %v", err)
	}
	log.Printf("seeded %d tokens to %s and wrote to Redis at %s", count, *out, *redisAddr)
}
