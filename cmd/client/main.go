package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/Sukhmangill977/majoor2.0/internal/client/profile"
	"github.com/Sukhmangill977/majoor2.0/internal/client/uploader"
)

func main() {
	server := flag.String("server", "http://localhost:3000", "profile server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	filePath := flag.String("file", "", "file to upload")
	kind := flag.String("kind", "pdf", "file kind: avatar or pdf")
	username := flag.String("username", "", "new username to submit with the profile form")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	up := uploader.New(uploader.WithProgress(func(percent int) {
		fmt.Printf("\rUploading: %d%%", percent)
	}))
	client := profile.NewClient(*server, profile.WithUploader(up))

	user, err := client.Signin(ctx, *email, *password)
	if err != nil {
		log.Fatalf("signin failed: %v", err)
	}
	fmt.Printf("Signed in as %s\n", user.Username)

	if *filePath != "" {
		if err := uploadFile(ctx, client, *filePath, *kind); err != nil {
			log.Fatalf("upload failed: %v", err)
		}
	}

	if *username != "" {
		updated, err := client.Submit(ctx, profile.UpdateFields{Username: username})
		if err != nil {
			log.Fatalf("profile update failed: %v", err)
		}
		fmt.Printf("Profile updated: username=%s avatar=%s\n", updated.Username, updated.ProfilePicture)
	}
}

func uploadFile(ctx context.Context, client *profile.Client, path, kind string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	var u *uploader.Upload
	switch kind {
	case "avatar":
		u, err = client.UploadAvatar(ctx, f, info.Size())
	case "pdf":
		u, err = client.UploadDocument(ctx, f, info.Size())
	default:
		return fmt.Errorf("unknown file kind %q", kind)
	}
	if err != nil {
		return err
	}

	<-u.Done()
	fmt.Println()

	status := u.Status()
	if status.State == uploader.StateFailed {
		return status.Err
	}

	fmt.Printf("Uploaded to %s\n", status.FileURL)
	if kind == "pdf" {
		// The attach call runs right after the transfer completes; wait for
		// the merged list before printing it.
		client.Wait()
		if err := client.DocumentError(); err != nil {
			return err
		}
		for i, url := range client.PDFURLs() {
			fmt.Printf("PDF %d: %s\n", i+1, url)
		}
	} else {
		client.Wait()
		if staged := client.PendingProfilePicture(); staged != "" {
			fmt.Printf("Avatar staged for next profile submit: %s\n", staged)
		}
	}

	return nil
}
