package batch

import (
	"batchenc/internal/config"
	"batchenc/internal/encoder"
	"batchenc/internal/jobstore"
)

// declaredRecords converts the configured job list into store records,
// inferring an output title from the input file name when none is declared.
func declaredRecords(cfg *config.Config) []jobstore.Record {
	records := make([]jobstore.Record, 0, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		title := job.OutputTitle
		if title == "" {
			title = jobstore.InferTitle(job.InputFile)
		}
		records = append(records, jobstore.Record{
			InputFile:       job.InputFile,
			OutputTitle:     title,
			OutDir:          job.OutDir,
			Quality:         job.Quality,
			Crop:            job.Crop,
			Decomb:          job.Decomb,
			MP4:             job.MP4,
			NoTenBit:        job.NoTenBit,
			Resize1080:      job.Resize1080,
			Movie:           job.Movie,
			DisableAutoBurn: job.DisableAutoBurn,
			BurnSubtitleNum: job.BurnSubtitleNum,
			AddSubtitle:     job.AddSubtitle,
			Chapters:        job.Chapters,
			ExtraOptions:    job.ExtraOptions,
			Passthrough:     job.Passthrough,
			ForceSoftware:   job.ForceSoftware,
		})
	}
	return records
}

// resolveJob flattens batch-level defaults and one record's overrides into
// the immutable configuration a strategy consumes.
func resolveJob(cfg *config.Config, rec jobstore.Record) encoder.JobConfig {
	job := encoder.JobConfig{
		InputFile:   rec.InputFile,
		OutputTitle: rec.OutputTitle,

		WorkDir:     cfg.Paths.WorkDir,
		OutDir:      cfg.Paths.OutDir,
		MediaRoot:   cfg.Paths.MediaRoot,
		ArchiveRoot: cfg.Paths.ArchiveRoot,

		Quality:         cfg.Encoding.Quality,
		Decomb:          cfg.Encoding.Decomb,
		MP4:             cfg.Encoding.MP4,
		NoTenBit:        cfg.Encoding.NoTenBit,
		Resize1080:      cfg.Encoding.Resize1080,
		Movie:           cfg.Encoding.Movie,
		DisableAutoBurn: cfg.Encoding.DisableAutoBurn,
		BurnSubtitleNum: cfg.Encoding.BurnSubtitleNum,
		AddSubtitle:     cfg.Encoding.AddSubtitle,
		Chapters:        cfg.Encoding.Chapters,
		Crop:            cfg.Encoding.Crop,
		ExtraOptions:    cfg.Encoding.ExtraOptions,
		ForceSoftware:   cfg.Encoding.ForceSoftware,

		SoftwareBinary: cfg.SoftwareBinary(),
		HardwareBinary: cfg.HardwareBinary(),
		FFprobeBinary:  cfg.FFprobeBinary(),
	}

	if rec.OutDir != nil {
		job.OutDir = *rec.OutDir
	}
	if rec.Quality != nil {
		job.Quality = *rec.Quality
	}
	if rec.Crop != nil {
		job.Crop = *rec.Crop
	}
	if rec.Decomb != nil {
		job.Decomb = *rec.Decomb
	}
	if rec.MP4 != nil {
		job.MP4 = *rec.MP4
	}
	if rec.NoTenBit != nil {
		job.NoTenBit = *rec.NoTenBit
	}
	if rec.Resize1080 != nil {
		job.Resize1080 = *rec.Resize1080
	}
	if rec.Movie != nil {
		job.Movie = *rec.Movie
	}
	if rec.DisableAutoBurn != nil {
		job.DisableAutoBurn = *rec.DisableAutoBurn
	}
	if rec.BurnSubtitleNum != nil {
		job.BurnSubtitleNum = *rec.BurnSubtitleNum
	}
	if rec.AddSubtitle != nil {
		job.AddSubtitle = *rec.AddSubtitle
	}
	if rec.Chapters != nil {
		job.Chapters = *rec.Chapters
	}
	if len(rec.ExtraOptions) > 0 {
		job.ExtraOptions = rec.ExtraOptions
	}
	if rec.Passthrough != nil {
		job.Passthrough = *rec.Passthrough
	}
	if rec.ForceSoftware != nil {
		job.ForceSoftware = *rec.ForceSoftware
	}
	return job
}
