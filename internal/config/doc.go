// Package config loads carbon.json, the project file read by the carbon CLI.
//
// # Configuration File Structure
//
//	{
//	  "origin": "https://example.com",
//	  "manifest": "routes.yaml",
//	  "templates": "templates",
//	  "preview": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "watch": true
//	  },
//	  "router": {
//	    "linkSelector": "a.nav",
//	    "contentKey": "yield"
//	  }
//	}
//
// "templates" may also be an s3://bucket/prefix URL. Unset router fields keep
// the router's defaults; RouterPatch turns the section into a
// router.ConfigPatch.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := router.New(router.WithConfig(cfg.RouterPatch()))
package config
