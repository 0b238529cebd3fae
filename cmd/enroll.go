package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/encoder"
	"github.com/kozaktomas/facegate/internal/gallery"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll people into the face gallery",
	Long: `Enroll one person from an image file, or a whole folder at once.

With --name and --image, the first detected face in the image is enrolled
under that name. With --dir, every image in the folder is enrolled using
its filename stem as the person's name.

Example:
  facegate enroll --name alice --image /photos/alice.jpg
  facegate enroll --dir /photos/staff`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Person's name")
	enrollCmd.Flags().String("image", "", "Path to the image file")
	enrollCmd.Flags().String("dir", "", "Folder of images to enroll (stem = name)")
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	imagePath := mustGetString(cmd, "image")
	dir := mustGetString(cmd, "dir")

	if dir == "" && (name == "" || imagePath == "") {
		return errors.New("either --dir, or both --name and --image are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	oracle := encoder.NewClient(cfg.Oracle.URL)
	gal := gallery.New(cfg.KnownFacesDir(), oracle)

	if dir == "" {
		return enrollOne(cmd, gal, name, imagePath)
	}
	return enrollFolder(cmd, gal, dir)
}

func enrollOne(cmd *cobra.Command, gal *gallery.Store, name, imagePath string) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("reading image %s: %w", imagePath, err)
	}
	if err := gal.EnrollImage(cmd.Context(), name, data); err != nil {
		if errors.Is(err, gallery.ErrNoFaceDetected) {
			return fmt.Errorf("no face detected in %s", imagePath)
		}
		return fmt.Errorf("enrolling %s: %w", name, err)
	}
	fmt.Printf("Face registered for %s.\n", name)
	return nil
}

func enrollFolder(cmd *cobra.Command, gal *gallery.Store, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading folder %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("faces"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var enrolled, skipped int
	var failures []string
	for _, file := range files {
		name := strings.TrimSuffix(file, filepath.Ext(file))
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file, err))
			_ = bar.Add(1)
			continue
		}
		if err := gal.EnrollImage(cmd.Context(), name, data); err != nil {
			if errors.Is(err, gallery.ErrNoFaceDetected) {
				skipped++
			} else {
				failures = append(failures, fmt.Sprintf("%s: %v", file, err))
			}
			_ = bar.Add(1)
			continue
		}
		enrolled++
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Enrolled %d faces (%d without a detectable face)\n", enrolled, skipped)
	for _, failure := range failures {
		fmt.Printf("  failed: %s\n", failure)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d enrollments failed", len(failures))
	}
	return nil
}
