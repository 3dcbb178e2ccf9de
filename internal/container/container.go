package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/config"
	"github.com/aifinder/aifinder-api/internal/infrastructure/mongodb"
	"github.com/aifinder/aifinder-api/internal/ratelimit"
	"github.com/aifinder/aifinder-api/pkg/groq"
	"github.com/aifinder/aifinder-api/pkg/helpers"
	"github.com/aifinder/aifinder-api/pkg/mailer"
	"github.com/aifinder/aifinder-api/pkg/pagemeta"
	"github.com/aifinder/aifinder-api/pkg/razorpay"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	gcsClient   *storage.Client

	mongoConn *mongodb.Conn
	toolStore *mongodb.Store
	userStore *mongodb.Store

	session *helpers.SessionManager
	rateReg *ratelimit.Registry

	paymentGW     *razorpay.Gateway
	groqClient    *groq.Client
	pageFetcher   *pagemeta.Fetcher
	mailgunClient *mailer.Mailgun
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }
func SetGCS(s *storage.Client)   { gcsClient = s }
func GetGCS() *storage.Client    { return gcsClient }

func SetMongoConn(c *mongodb.Conn)  { mongoConn = c }
func GetMongoConn() *mongodb.Conn   { return mongoConn }
func SetToolStore(s *mongodb.Store) { toolStore = s }
func GetToolStore() *mongodb.Store  { return toolStore }
func SetUserStore(s *mongodb.Store) { userStore = s }
func GetUserStore() *mongodb.Store  { return userStore }

func SetSession(m *helpers.SessionManager) { session = m }
func GetSession() *helpers.SessionManager {
	if session != nil {
		return session
	}
	return helpers.DefaultSession()
}

func SetRateRegistry(r *ratelimit.Registry) { rateReg = r }
func GetRateRegistry() *ratelimit.Registry  { return rateReg }

func SetGateway(g *razorpay.Gateway)          { paymentGW = g }
func GetGateway() *razorpay.Gateway           { return paymentGW }
func SetGroq(c *groq.Client)                  { groqClient = c }
func GetGroq() *groq.Client                   { return groqClient }
func SetPageFetcher(f *pagemeta.Fetcher)      { pageFetcher = f }
func GetPageFetcher() *pagemeta.Fetcher       { return pageFetcher }
func SetMailgun(m *mailer.Mailgun)            { mailgunClient = m }
func GetMailgun() *mailer.Mailgun             { return mailgunClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
