package main

type Settings struct {
	Port                int      `env:"PORT,default=8000"`
	BasePath            string   `env:"BASE_PATH,default=/realtime"`
	JWTSecret           string   `env:"JWT_SECRET,required=true"`
	APIKeys             []string `env:"API_KEYS"`
	AllowedOrigins      []string `env:"ALLOWED_ORIGINS"`
	MongoURI            string   `env:"MONGO_URI"`
	ReapIntervalSeconds int      `env:"REAP_INTERVAL_SECONDS,default=60"`
	SendBufferSize      int      `env:"SEND_BUFFER_SIZE,default=256"`
	LogEncoding         string   `env:"LOG_ENCODING,default=console"`
}
