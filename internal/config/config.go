package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Bitlatte/oven/internal/uri"
)

const (
	ContentDir   = "_content"
	PagesDir     = "pages"
	PostsDir     = "posts"
	TemplatesDir = "templates"
	CacheDir     = "_cache"
	ContentExt   = ".html"
)

type Config struct {
	Root      string       `mapstructure:"root"`
	OutputDir string       `mapstructure:"outputDir"`
	BaseURL   string       `mapstructure:"baseURL"`
	LogLevel  string       `mapstructure:"logLevel"`
	Site      SiteConfig   `mapstructure:"site"`
	Baker     BakerConfig  `mapstructure:"baker"`
	Server    ServerConfig `mapstructure:"server"`
}

type SiteConfig struct {
	Title        string                `mapstructure:"title"`
	Blogs        []string              `mapstructure:"blogs"`
	PostsPerPage int                   `mapstructure:"postsPerPage"`
	PrettyURLs   bool                  `mapstructure:"prettyURLs"`
	PostURL      string                `mapstructure:"postURL"`
	TagURL       string                `mapstructure:"tagURL"`
	CategoryURL  string                `mapstructure:"categoryURL"`
	BlogFormats  map[string]BlogFormat `mapstructure:"blogFormats"`
}

// BlogFormat overrides URL formats of one blog on a multi-blog site.
type BlogFormat struct {
	PostURL     string `mapstructure:"postURL"`
	TagURL      string `mapstructure:"tagURL"`
	CategoryURL string `mapstructure:"categoryURL"`
}

type BakerConfig struct {
	Smart         bool     `mapstructure:"smart"`
	CopyAssets    bool     `mapstructure:"copyAssets"`
	CopyMisc      bool     `mapstructure:"copyMisc"`
	Staleness     string   `mapstructure:"staleness"`
	SkipPatterns  []string `mapstructure:"skipPatterns"`
	ForcePatterns []string `mapstructure:"forcePatterns"`
	Processors    []string `mapstructure:"processors"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	CacheDir string `mapstructure:"cacheDir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("outputDir", "_site")
	v.SetDefault("baseURL", "/")
	v.SetDefault("logLevel", "info")
	v.SetDefault("site.title", "My Oven Site")
	v.SetDefault("site.blogs", []string{uri.DefaultBlogKey})
	v.SetDefault("site.postsPerPage", 5)
	v.SetDefault("site.prettyURLs", true)
	v.SetDefault("baker.smart", true)
	v.SetDefault("baker.copyAssets", false)
	v.SetDefault("baker.copyMisc", false)
	v.SetDefault("baker.staleness", "mtime")
	v.SetDefault("baker.processors", []string{"*"})
	v.SetDefault("server.port", 8080)
}

// Load reads config.yaml from root (or cfgFile when set), a .env file in the
// working directory, and OVEN_* environment variables. A missing config file
// is not an error unless cfgFile names it explicitly.
func Load(cfgFile, root string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if root != "" {
		v.SetDefault("root", root)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(v.GetString("root"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("OVEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if root != "" {
		cfg.Root = root
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("resolve site root: %w", err)
	}
	c.Root = root
	if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(root, c.OutputDir)
	}
	if c.Server.CacheDir == "" {
		c.Server.CacheDir = filepath.Join(c.CachePath(), "server_cache")
	}
	if len(c.Site.Blogs) == 0 {
		c.Site.Blogs = []string{uri.DefaultBlogKey}
	}
	if c.Site.PostsPerPage < 1 {
		c.Site.PostsPerPage = 5
	}
	switch c.Baker.Staleness {
	case "", "mtime":
		c.Baker.Staleness = "mtime"
	case "hash":
	default:
		return fmt.Errorf("unknown staleness mode %q", c.Baker.Staleness)
	}
	return nil
}

func (c *Config) PagesPath() string {
	return filepath.Join(c.Root, ContentDir, PagesDir)
}

func (c *Config) PostsPath() string {
	return filepath.Join(c.Root, ContentDir, PostsDir)
}

func (c *Config) TemplatesPath() string {
	return filepath.Join(c.Root, ContentDir, TemplatesDir)
}

func (c *Config) CachePath() string {
	return filepath.Join(c.Root, CacheDir)
}

// Routing derives the resolver's routing table. Site-wide formats apply to
// every blog; blogFormats override per blog.
func (c *Config) Routing() uri.Routing {
	r := uri.Routing{
		PagesDir:   c.PagesPath(),
		PostsDir:   c.PostsPath(),
		ContentExt: ContentExt,
	}
	multi := len(c.Site.Blogs) > 1
	for _, key := range c.Site.Blogs {
		b := uri.NewDefaultBlog(key, multi)
		prefix := ""
		if multi {
			prefix = key + "/"
		}
		if c.Site.PostURL != "" {
			b.PostURL = prefix + c.Site.PostURL
		}
		if c.Site.TagURL != "" {
			b.TagURL = prefix + c.Site.TagURL
		}
		if c.Site.CategoryURL != "" {
			b.CategoryURL = prefix + c.Site.CategoryURL
		}
		if f, ok := c.Site.BlogFormats[key]; ok {
			if f.PostURL != "" {
				b.PostURL = f.PostURL
			}
			if f.TagURL != "" {
				b.TagURL = f.TagURL
			}
			if f.CategoryURL != "" {
				b.CategoryURL = f.CategoryURL
			}
		}
		r.Blogs = append(r.Blogs, b)
	}
	return r
}
